// Package service implements the use cases exposed by the HTTP handlers.
package service

import (
	"net/http"

	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/mdouchement/skystore/internal/skerror"
)

// PerPage is the number of records in a listing page.
const PerPage = 6

type (
	// M is an arbitrary map.
	M map[string]any

	// A Render is an arbitrary payload serializable in JSON by the API.
	Render any

	// A Pagination describes the page of a listing.
	Pagination struct {
		Number  int `json:"number"`
		PerPage int `json:"per_page"`
		Total   int `json:"total"`
		Pages   int `json:"pages"`
	}
)

// Paginate returns the page of the listing for the requested number.
// Out of range numbers are clamped to the first or last page.
func Paginate(number, total int) Pagination {
	pages := (total + PerPage - 1) / PerPage
	if pages < 1 {
		pages = 1
	}

	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	return Pagination{
		Number:  number,
		PerPage: PerPage,
		Total:   total,
		Pages:   pages,
	}
}

// Requested returns the database page for the requested number before the total is known.
func Requested(number int) database.Page {
	if number < 1 {
		number = 1
	}
	return database.Page{
		Offset: (number - 1) * PerPage,
		Limit:  PerPage,
	}
}

// Page returns the database page of the pagination.
func (p Pagination) Page() database.Page {
	return database.Page{
		Offset: (p.Number - 1) * p.PerPage,
		Limit:  p.PerPage,
	}
}

// Deny converts a policy decision error into an API error.
// Anonymous viewers are asked to authenticate instead of being forbidden.
func Deny(viewer policy.Viewer, err error) error {
	switch {
	case err == nil:
		return nil
	case policy.IsInvalidArgument(err):
		return skerror.NewWithTagCode(http.StatusBadRequest, skerror.TagInvalidArgument, err.Error())
	case policy.IsPermissionDenied(err):
		if !viewer.Authenticated {
			return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Authentication required.")
		}
		return skerror.NewWithTagCode(http.StatusForbidden, skerror.TagPermissionDenied, err.Error())
	}
	return err
}

func conflict(message string) error {
	return skerror.NewWithTagCode(http.StatusConflict, skerror.TagConflict, message)
}

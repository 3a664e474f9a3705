package main

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/skystore/internal/config"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/pkg/stormsql"
	"github.com/mdouchement/skystore/pkg/structs"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

// skystore console -c skystore.yml "SELECT count(*) FROM products WHERE State = 'pending' AND UpdatedAt > '2024-02-16 20:52:55';"

// tables maps the SQL table names to the stored records.
var tables = map[string]func() any{
	"users":         func() any { return &[]*model.User{} },
	"groups":        func() any { return &[]*model.Group{} },
	"sessions":      func() any { return &[]*model.Session{} },
	"categories":    func() any { return &[]*model.Category{} },
	"products":      func() any { return &[]*model.Product{} },
	"blog_posts":    func() any { return &[]*model.BlogPost{} },
	"contact_infos": func() any { return &[]*model.ContactInfo{} },
}

func consoleCmd() *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "console SQL",
		Short: "Read-only SQL console for skystore database",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if format != "json" && format != "litter" {
				return errors.Errorf("unknown format %q", format)
			}

			//
			//
			sc, err := stormsql.ParseSelect(args[0])
			if err != nil {
				return err
			}

			records, ok := tables[sc.Tablename]
			if !ok {
				return errors.Errorf("unknown tablename: %s", sc.Tablename)
			}

			//
			//
			konf, err := config.Load(cfg)
			if err != nil {
				return err
			}

			fmt.Println("Opening", konf.Database())
			db, err := storm.Open(konf.Database(), database.StormCodec)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			//
			// Prepare request
			//

			query := db.Select(sc.Matcher)
			if sc.Skip > 0 {
				query.Skip(sc.Skip)
			}
			if sc.Limit > 0 {
				query.Limit(sc.Limit)
			}
			if len(sc.OrderBy) > 0 {
				query.OrderBy(sc.OrderBy...)
				if sc.OrderByReversed {
					query.Reverse()
				}
			}

			// Execute

			if sc.Count {
				kind := reflect.New(reflect.TypeOf(records()).Elem().Elem().Elem())
				n, err := query.Count(kind.Interface())
				if err != nil {
					return errors.Wrap(err, "could not perform query")
				}
				fmt.Println("Count:", n)
				return nil
			}

			v := records()
			err = query.Find(v)
			if err != nil && err != storm.ErrNotFound {
				return errors.Wrap(err, "could not perform query")
			}

			rows, err := project(v, sc.SelectedFields)
			if err != nil {
				return err
			}
			return dump(format, rows)
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or litter")

	return c
}

// project keeps only the given fields of the records, all of them when fields is empty.
func project(records any, fields []string) (any, error) {
	if len(fields) == 0 {
		return records, nil
	}

	slice := reflect.ValueOf(records).Elem()
	rows := make([]map[string]any, slice.Len())
	for i := range rows {
		row, err := structs.Pick(slice.Index(i).Interface(), fields...)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

func dump(format string, v any) error {
	if format == "litter" {
		fmt.Println(litter.Sdump(v))
		return nil
	}

	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode records")
	}
	fmt.Println(string(d))
	return nil
}

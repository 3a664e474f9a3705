package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mdouchement/skystore/internal/seed"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	setupPermissionsCmd = &cobra.Command{
		Use:   "setup-permissions",
		Short: "Create the content managers group with the blog capabilities",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			_, db, l, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			created, err := seed.Permissions(db, l)
			if err != nil {
				return err
			}

			if created {
				fmt.Println("Group content-manager created")
			} else {
				fmt.Println("Group content-manager already exists, capabilities updated")
			}
			return nil
		},
	}

	//
	loadContactInfoCmd = &cobra.Command{
		Use:   "load-contact-info",
		Short: "Create the default contact details",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			_, db, l, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			created, err := seed.ContactInfo(db, l)
			if err != nil {
				return err
			}

			if created {
				fmt.Println("Contact info created")
			} else {
				fmt.Println("An active contact info already exists")
			}
			return nil
		},
	}
)

func loadProductsCmd() *cobra.Command {
	var purge bool

	c := &cobra.Command{
		Use:   "load-products FIXTURES",
		Short: "Load categories and products from a JSON fixtures file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "could not open fixtures")
			}
			defer f.Close()

			fixtures, err := seed.ReadFixtures(f)
			if err != nil {
				return err
			}

			konf, db, l, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			listings, err := sharedCache(konf.Cache)
			if err != nil {
				return errors.Wrap(err, "could not setup cache")
			}
			if closer, ok := listings.(io.Closer); ok {
				defer closer.Close()
			}

			report, err := seed.Products(cmd.Context(), db, listings, fixtures, purge, l)
			if err != nil {
				return err
			}

			fmt.Println("Categories:", report.Categories)
			fmt.Println("Products:", report.Products)
			return nil
		},
	}
	c.Flags().BoolVar(&purge, "clear", false, "Delete the existing products and categories first")

	return c
}

func grantCmd() *cobra.Command {
	var grant seed.Grant

	c := &cobra.Command{
		Use:   "grant",
		Short: "Grant groups, capabilities or superuser status to a user",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			if grant.Email == "" {
				return errors.New("--email is required")
			}

			_, db, l, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := grant.Apply(db, l)
			if err != nil {
				return err
			}

			fmt.Println("User:", user.ID)
			fmt.Println("Capabilities:", user.Capabilities)
			fmt.Println("Groups:", user.Groups)
			fmt.Println("Superuser:", user.IsSuperuser)
			return nil
		},
	}
	c.Flags().StringVar(&grant.Email, "email", "", "Email of the user")
	c.Flags().StringSliceVar(&grant.Groups, "group", nil, "Group name to join (repeatable)")
	c.Flags().StringSliceVar(&grant.Capabilities, "capability", nil, "Capability to grant (repeatable)")
	c.Flags().BoolVar(&grant.Superuser, "superuser", false, "Grant all the capabilities")

	return c
}

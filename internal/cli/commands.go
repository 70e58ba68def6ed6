package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/microsolutions/showcase/internal/database"
	"github.com/microsolutions/showcase/internal/modules/adminuser"
	"github.com/microsolutions/showcase/internal/modules/localcache"
	"github.com/spf13/cobra"
)

// MigrateCommand creates or updates the tables.
func MigrateCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := database.Migrate(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

// ExportCommand writes solutions or singletons to a file or stdout.
func ExportCommand(open opener) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export solutions (json, xlsx) or singletons (singletons)",
		Long: `Export showcase data.

Examples:
  showcasectl export --format json --out solutions.json
  showcasectl export --format xlsx --out solutions.xlsx
  showcasectl export --format singletons`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			var body []byte
			switch strings.ToLower(format) {
			case "json":
				body, err = e.svc.Transfer.ExportSolutionsJSON(ctx)
			case "xlsx":
				if out == "" || out == "-" {
					return fmt.Errorf("xlsx export needs --out")
				}
				body, err = e.svc.Transfer.ExportSolutionsXLSX(ctx)
			case "singletons":
				body, err = e.svc.Transfer.ExportSingletonsJSON(ctx)
			default:
				return fmt.Errorf("unknown format %q, expected json, xlsx or singletons", format)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, body)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json, xlsx or singletons")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(body)
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

// ImportCommand inserts solutions from an exported JSON file.
func ImportCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import solutions from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ids, err := e.svc.Transfer.ImportSolutions(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d solutions\n", len(ids))
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

// CacheCommand manages the on-disk fallback copy of the solution list.
func CacheCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the fallback solution cache"}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate-demo",
		Short: "Replace the demo dataset in the cache with the stored solutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.svc.Solutions.ListContext(cmd.Context())
			if err != nil {
				return err
			}
			wrote, err := e.svc.Cache.MigrateDemoToReal(list)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(cmd.OutOrStdout(), "cache replaced with %d solutions\n", len(list))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "cache already holds real data, left unchanged")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed-demo",
		Short: "Write the demo dataset to the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.svc.Cache.Save(localcache.DemoSolutions()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.svc.Cache.Path())
			return nil
		},
	})
	return cmd
}

// AdminCommand manages admin accounts.
func AdminCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Manage admin accounts"}

	var dto adminuser.CreateDTO
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.svc.Users.Create(cmd.Context(), dto)
			if err != nil {
				return err
			}
			if u.Email != e.cfg.AdminEmail {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: only %s may sign in\n", e.cfg.AdminEmail)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&dto.Email, "email", "", "Account email")
	create.Flags().StringVar(&dto.Password, "password", "", "Account password")
	create.Flags().StringVar(&dto.Name, "name", "", "Display name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	cmd.AddCommand(create)
	return cmd
}

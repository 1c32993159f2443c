package cli

import (
	"context"
	"errors"
	"fmt"

	"stock-pos/internal/app"

	"github.com/spf13/cobra"
)

// Env is what the commands run against.
type Env struct {
	Svc     app.ApplicationService
	Migrate func(ctx context.Context) error
}

// Bootstrap builds the Env on first use so that help and flag errors need no database.
// The returned func releases whatever Bootstrap opened.
type Bootstrap func(ctx context.Context) (*Env, func(), error)

// NewRootCommand returns the `pos` command tree.
func NewRootCommand(boot Bootstrap) *cobra.Command {
	root := &cobra.Command{
		Use:           "pos",
		Short:         "Point-of-sale stock tools",
		Long:          "Maintenance and reporting commands for the POS inventory database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	r := &runner{boot: boot}

	// Database
	root.AddCommand(r.migrateCmd())
	root.AddCommand(r.resetDataCmd())

	// Development data
	root.AddCommand(r.seedUsersCmd())
	root.AddCommand(r.seedDemoCmd())

	// Inventory
	root.AddCommand(r.lowStockCmd())
	root.AddCommand(r.restockCmd())
	root.AddCommand(r.exportMovementsCmd())

	return root
}

type runner struct {
	boot Bootstrap
}

// with boots the Env, runs fn, and releases the Env.
func (r *runner) with(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, release, err := r.boot(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, env)
}

// pos migrate
func (r *runner) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				if env.Migrate == nil {
					return errors.New("migrations are not available in this build")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
				if err := env.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations up to date.")
				return nil
			})
		},
	}
}

// pos reset-data --yes
func (r *runner) resetDataCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-data",
		Short: "Delete every user, product, sale and movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset-data deletes all data; pass --yes to confirm")
			}
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Svc.ResetData(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data deleted.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}

// pos seed-users
func (r *runner) seedUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-users",
		Short: "Create or reset the base ADMIN and SELLER accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				result, err := env.Svc.SeedUsers(ctx)
				if err != nil {
					return err
				}
				printUsers(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

// pos seed-demo --user admin
func (r *runner) seedDemoCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Write a demo catalog and two years of sales history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				result, err := env.Svc.SeedDemo(ctx, username)
				if err != nil {
					return err
				}
				printDemo(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "user", "admin", "user recorded as the author of demo sales and movements")
	return cmd
}

// pos low-stock
func (r *runner) lowStockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "low-stock",
		Short: "List products below their minimum stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				result, err := env.Svc.ListLowStock(ctx)
				if err != nil {
					return err
				}
				printLowStock(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

// pos restock (--id N | --name NAME) --qty N
func (r *runner) restockCmd() *cobra.Command {
	var (
		id       int64
		name     string
		qty      int
		reason   string
		date     string
		username string
	)
	cmd := &cobra.Command{
		Use:   "restock",
		Short: "Add units to a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 && name == "" {
				return errors.New("one of --id or --name is required")
			}
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				actor, err := env.Svc.ResolveActor(ctx, username)
				if err != nil {
					return err
				}
				req := app.RestockRequest{
					Name:     name,
					Quantity: qty,
					Reason:   reason,
					Date:     date,
					Actor:    actor,
				}
				if id != 0 {
					req.ProductID = &id
				}
				result, err := env.Svc.Restock(ctx, req)
				if err != nil {
					return err
				}
				p := result.Product
				fmt.Fprintf(cmd.OutOrStdout(), "Restocked %q (id %d): stock now %d\n", p.Name, p.ID, p.CurrentStock)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "product id")
	cmd.Flags().StringVar(&name, "name", "", "exact product name, used when --id is not given")
	cmd.Flags().IntVar(&qty, "qty", 0, "units to add")
	cmd.Flags().StringVar(&reason, "reason", "", "movement reason (default \"restock\")")
	cmd.Flags().StringVar(&date, "date", "", "movement date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&username, "user", "admin", "user recorded on the movement")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

// pos export-movements --out movements.xlsx
func (r *runner) exportMovementsCmd() *cobra.Command {
	var (
		out       string
		productID int64
		from      string
		to        string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "export-movements",
		Short: "Export inventory movements to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, env *Env) error {
				req := app.ListMovementsRequest{From: from, To: to, Limit: limit}
				if productID != 0 {
					req.ProductID = &productID
				}
				result, err := env.Svc.ListMovements(ctx, req)
				if err != nil {
					return err
				}
				if err := writeMovementsXLSX(result.Movements, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d movements to %s\n", len(result.Movements), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "movements.xlsx", "output file")
	cmd.Flags().Int64Var(&productID, "product", 0, "only this product id")
	cmd.Flags().StringVar(&from, "from", "", "first movement date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last movement date YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 10000, "maximum rows")
	return cmd
}

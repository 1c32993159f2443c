package cli

import (
	"fmt"
	"io"
	"strings"

	"stock-pos/internal/app"
)

func printLowStock(w io.Writer, result *app.LowStockResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  LOW STOCK: %d product(s) below minimum\n", result.Count)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	if len(result.Items) == 0 {
		fmt.Fprintln(w, "  All products are at or above their minimum.")
		fmt.Fprintln(w, strings.Repeat("=", 62))
		return
	}
	fmt.Fprintf(w, "  %-6s %-30s %10s %10s\n", "ID", "NAME", "STOCK", "MINIMUM")
	fmt.Fprintln(w, strings.Repeat("-", 62))
	for _, p := range result.Items {
		fmt.Fprintf(w, "  %-6d %-30s %10d %10d\n", p.ID, truncate(p.Name, 30), p.CurrentStock, p.MinimumStock)
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))
}

func printUsers(w io.Writer, result *app.UserListResult) {
	fmt.Fprintln(w, "Base users ready (password equals username):")
	for _, u := range result.Users {
		fmt.Fprintf(w, "  %-4d %-12s %s\n", u.UserID, u.Username, u.Role)
	}
}

func printDemo(w io.Writer, result *app.DemoResult) {
	fmt.Fprintln(w, "Demo data written:")
	fmt.Fprintf(w, "  products   %d\n", result.Products)
	fmt.Fprintf(w, "  sales      %d (%d lines over %d months)\n", result.Sales, result.Lines, result.Months)
	fmt.Fprintf(w, "  restocks   %d\n", result.Restocks)
	fmt.Fprintf(w, "  low stock  %d\n", result.LowStock)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

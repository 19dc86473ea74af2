package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sgcombinator/web/guard"
)

// RoutesCmd prints the route table the access guard would run with.
type RoutesCmd struct{}

func (c *RoutesCmd) Run(globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	return printTable(os.Stdout, table)
}

func printTable(out io.Writer, table *guard.Table) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFIX\tAUTH\tONBOARDING")
	for _, prefix := range table.Bypass() {
		fmt.Fprintf(tw, "%s\tbypass\tbypass\n", prefix)
	}
	for _, rule := range table.Rules() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", rule.Prefix, yesNo(rule.RequiresAuth), yesNo(rule.RequiresOnboarding))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

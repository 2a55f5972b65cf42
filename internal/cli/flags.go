package cli

import (
	"errors"
	"flag"
	"io"
)

// ReconcileFlags are the flags of the recon command
type ReconcileFlags struct {
	Hub        string
	Sales      string
	HubSheet   string
	SalesSheet string
	Out        string
	Config     string
	MaxRows    int // -1 keeps the configured limit, 0 = unlimited
	DryRun     bool
	Verbose    bool
}

// ParseReconcileFlags parses recon flags from args (without the program name)
func ParseReconcileFlags(args []string, output io.Writer) (ReconcileFlags, error) {
	var flags ReconcileFlags
	fs := flag.NewFlagSet("recon", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Hub, "hub", "", "Hub settlement report (.csv, .xlsx)")
	fs.StringVar(&flags.Sales, "sales", "", "Sales report (.csv, .xlsx)")
	fs.StringVar(&flags.HubSheet, "hub-sheet", "", "Worksheet to read from the hub workbook (default: first)")
	fs.StringVar(&flags.SalesSheet, "sales-sheet", "", "Worksheet to read from the sales workbook (default: first)")
	fs.StringVar(&flags.Out, "out", "", "Write the result to this .csv or .xlsx file (default: CSV on stdout)")
	fs.StringVar(&flags.Config, "config", "", "Config file (.yaml or .toml); default config.yaml, then environment")
	fs.IntVar(&flags.MaxRows, "max-rows", -1, "Maximum rows per dataset (0 = unlimited, -1 = from config)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Do not record the run in history")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if flags.Hub == "" || flags.Sales == "" {
		fs.Usage()
		return flags, errors.New("both -hub and -sales are required")
	}
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int // 0 keeps the configured port
	Config  string
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string, output io.Writer) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default: from config, 8085)")
	fs.StringVar(&flags.Config, "config", "", "Config file (.yaml or .toml)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

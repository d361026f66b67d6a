package main

import (
	"fmt"
	"os"

	"github.com/mastercactapus/austerus/coord"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/logging"
	"github.com/mastercactapus/austerus/stats"
	"github.com/spf13/cobra"
)

var (
	vergeDeposition bool
	vergeZMin       string
	vergePhysical   bool
	vergeIgnore     string
	vergeStrict     bool
)

var vergeCmd = &cobra.Command{
	Use:   "verge FILE",
	Short: "Report the bounds a program reaches",
	Long: `Report the lowest and highest X, Y and Z (and E with --deposition) that a
G-code program reaches.

By default every position counts. --deposition only counts moves that
extrude once printing has started; --zmin Z only counts moves that stay at
or below Z. Moves ending inside the --ignore region are dropped along with
the point before them.

Examples:
  austerus verge part.gcode
  austerus verge --deposition --physical part.gcode
  austerus verge --zmin 0.3 --ignore 0:20:0:20 part.gcode`,
	Args: cobra.ExactArgs(1),
	RunE: runVerge,
}

func init() {
	vergeCmd.Flags().BoolVarP(&vergeDeposition, "deposition", "d", false, "Only count extruding moves")
	vergeCmd.Flags().StringVarP(&vergeZMin, "zmin", "z", "", "Only count moves at or below this height")
	vergeCmd.Flags().BoolVar(&vergePhysical, "physical", false, "Report positions relative to home")
	vergeCmd.Flags().StringVar(&vergeIgnore, "ignore", "", "Region x1:x2:y1:y2 to leave out")
	vergeCmd.Flags().BoolVar(&vergeStrict, "strict", false, "Stop at the first malformed line")
	rootCmd.AddCommand(vergeCmd)
}

func runVerge(cmd *cobra.Command, args []string) error {
	log := logging.New(verbosity).Named("verge")
	defer log.Sync()

	opts := stats.Options{
		Physical: vergePhysical,
		Parse:    gcode.Options{Strict: vergeStrict},
		Logger:   log,
	}

	zmin := cmd.Flags().Changed("zmin")
	switch {
	case vergeDeposition && zmin:
		return fmt.Errorf("--deposition and --zmin cannot be used together")
	case vergeDeposition:
		opts.Mode = stats.ModeDeposition
	case zmin:
		z, err := coord.ParseFixed(vergeZMin)
		if err != nil {
			return fmt.Errorf("invalid --zmin: %w", err)
		}
		opts.Mode = stats.ModeZWindow
		opts.ZMin = z
	}

	if vergeIgnore != "" {
		r, err := stats.ParseRegion(vergeIgnore)
		if err != nil {
			return fmt.Errorf("invalid --ignore: %w", err)
		}
		opts.Ignore = &r
	}

	fd, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fd.Close()

	ext, n, err := stats.Extents(fd, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	head := fmt.Sprintf("%s: %d lines, %s", args[0], n, opts.Mode)
	if opts.Ignore != nil {
		head += ", ignoring " + opts.Ignore.String()
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(head))
	return ext.Report(out, vergeDeposition)
}

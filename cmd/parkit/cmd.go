package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/parkit/backend/cpu"
	"github.com/born-ml/parkit/backend/webgpu"
	"github.com/born-ml/parkit/internal/envconfig"
	"github.com/born-ml/parkit/kernels"
	"github.com/born-ml/parkit/parallel"
)

const version = "v0.1.0-dev"

// NewCLI builds the root command.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "parkit",
		Short:         "Parallel prefix sums, reductions and comparisons",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: envconfig.LogLevel(),
			})
			slog.SetDefault(slog.New(handler))
		},
	}
	rootCmd.PersistentFlags().String("backend", "cpu", "Execution space: cpu, serial or webgpu")

	scanCmd := &cobra.Command{
		Use:   "scan VALUES...",
		Short: "Prefix sum of integers (exclusive unless --inclusive)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  ScanHandler,
	}
	scanCmd.Flags().Bool("inclusive", false, "Include each element in its own prefix")

	sumCmd := &cobra.Command{
		Use:   "sum VALUES...",
		Short: "Sum of integers or floats",
		Args:  cobra.MinimumNArgs(1),
		RunE:  SumHandler,
	}

	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Sum of end[i] - begin[i] over two offset lists",
		Args:  cobra.ExactArgs(0),
		RunE:  DiffHandler,
	}
	diffCmd.Flags().String("begin", "", "Comma separated begin offsets")
	diffCmd.Flags().String("end", "", "Comma separated end offsets")

	equalCmd := &cobra.Command{
		Use:   "equal",
		Short: "Compare two float lists under an absolute tolerance",
		Args:  cobra.ExactArgs(0),
		RunE:  EqualHandler,
	}
	equalCmd.Flags().String("a", "", "Comma separated values")
	equalCmd.Flags().String("b", "", "Comma separated values")
	equalCmd.Flags().Float64("eps", 0, "Largest accepted absolute difference")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Time every primitive on the selected backend and sequentially",
		Args:  cobra.ExactArgs(0),
		RunE:  BenchHandler,
	}
	benchCmd.Flags().Int("n", 1<<20, "Number of elements")
	benchCmd.Flags().Int("repeat", 5, "Runs per primitive; the fastest is reported")
	benchCmd.Flags().Bool("verify", false, "Check every result against a reference")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show configuration variables",
		Args:  cobra.ExactArgs(0),
		RunE:  EnvHandler,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "parkit %s\n", version)
		},
	}

	rootCmd.AddCommand(scanCmd, sumCmd, diffCmd, equalCmd, benchCmd, envCmd, versionCmd)
	return rootCmd
}

// newSpace opens the execution space named by the --backend flag.
// The returned function releases it.
func newSpace(cmd *cobra.Command) (parallel.Space, func(), error) {
	name, err := cmd.Flags().GetString("backend")
	if err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(name) {
	case "cpu":
		return cpu.New(), func() {}, nil
	case "serial":
		return parallel.Serial{}, func() {}, nil
	case "webgpu", "gpu":
		gpu := webgpu.NewWithFallback(parallel.LoadConfig())
		return gpu, gpu.Release, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}

// ScanHandler prints the prefix sum of the arguments.
func ScanHandler(cmd *cobra.Command, args []string) error {
	values, err := parseInts(strings.Join(args, ","))
	if err != nil {
		return err
	}
	inclusive, err := cmd.Flags().GetBool("inclusive")
	if err != nil {
		return err
	}

	space, release, err := newSpace(cmd)
	if err != nil {
		return err
	}
	defer release()

	if prefixSum(space, values, inclusive) {
		slog.Debug("scan ran on typed device kernel", "backend", space.Name(), "n", len(values))
	}

	fmt.Fprintln(cmd.OutOrStdout(), joinInts(values))
	return nil
}

// SumHandler prints the sum of the arguments. Integers are summed exactly.
func SumHandler(cmd *cobra.Command, args []string) error {
	space, release, err := newSpace(cmd)
	if err != nil {
		return err
	}
	defer release()

	list := strings.Join(args, ",")
	if ints, err := parseInts(list); err == nil {
		total, typed := sumInts(space, ints)
		if typed {
			slog.Debug("sum ran on typed device kernel", "backend", space.Name(), "n", len(ints))
		}
		fmt.Fprintln(cmd.OutOrStdout(), total)
		return nil
	}

	values, err := parseFloats(list)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(kernels.Sum(space, len(values), values), 'g', -1, 64))
	return nil
}

// DiffHandler prints the sum of end[i] - begin[i].
func DiffHandler(cmd *cobra.Command, _ []string) error {
	beginFlag, err := cmd.Flags().GetString("begin")
	if err != nil {
		return err
	}
	endFlag, err := cmd.Flags().GetString("end")
	if err != nil {
		return err
	}

	begin, err := parseInts(beginFlag)
	if err != nil {
		return fmt.Errorf("--begin: %w", err)
	}
	end, err := parseInts(endFlag)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}
	if len(begin) != len(end) {
		return fmt.Errorf("--begin has %d offsets, --end has %d", len(begin), len(end))
	}

	space, release, err := newSpace(cmd)
	if err != nil {
		return err
	}
	defer release()

	total, typed := diffSum(space, begin, end)
	if typed {
		slog.Debug("diff ran on typed device kernel", "backend", space.Name(), "n", len(begin))
	}
	fmt.Fprintln(cmd.OutOrStdout(), total)
	return nil
}

// EqualHandler prints true if both lists match within --eps.
func EqualHandler(cmd *cobra.Command, _ []string) error {
	aFlag, err := cmd.Flags().GetString("a")
	if err != nil {
		return err
	}
	bFlag, err := cmd.Flags().GetString("b")
	if err != nil {
		return err
	}
	eps, err := cmd.Flags().GetFloat64("eps")
	if err != nil {
		return err
	}
	if eps < 0 {
		return fmt.Errorf("--eps must not be negative, got %g", eps)
	}

	a, err := parseFloats(aFlag)
	if err != nil {
		return fmt.Errorf("--a: %w", err)
	}
	b, err := parseFloats(bFlag)
	if err != nil {
		return fmt.Errorf("--b: %w", err)
	}

	space, release, err := newSpace(cmd)
	if err != nil {
		return err
	}
	defer release()

	equal, typed := approximatelyEqual(space, a, b, eps)
	if typed {
		slog.Debug("equal ran on typed device kernel", "backend", space.Name(), "n", len(a))
	}
	fmt.Fprintln(cmd.OutOrStdout(), equal)
	return nil
}

// EnvHandler lists the configuration variables and their current values.
func EnvHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([][]string, 0, len(names))
	for _, name := range names {
		v := vars[name]
		data = append(data, []string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
	return nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func parseInts(s string) ([]int64, error) {
	fields := splitList(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no values given")
	}
	values := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", f, err)
		}
		values[i] = v
	}
	return values, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := splitList(s)
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", f, err)
		}
		values[i] = v
	}
	return values, nil
}

func joinInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, " ")
}


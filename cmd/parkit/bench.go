package main

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/parkit/backend/webgpu"
	"github.com/born-ml/parkit/kernels"
	"github.com/born-ml/parkit/parallel"
)

// benchResult is one row of the bench table.
type benchResult struct {
	name       string
	parallel   time.Duration
	sequential time.Duration
	bytes      int
	verified   string
}

// BenchHandler times every primitive on the selected space and on the
// calling goroutine alone.
func BenchHandler(cmd *cobra.Command, _ []string) error {
	n, err := cmd.Flags().GetInt("n")
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("--n must be positive, got %d", n)
	}
	repeat, err := cmd.Flags().GetInt("repeat")
	if err != nil {
		return err
	}
	repeat = max(repeat, 1)
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return err
	}

	space, release, err := newSpace(cmd)
	if err != nil {
		return err
	}
	defer release()

	results, err := runBench(space, n, repeat, verify)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend %s, n=%s, best of %d\n", space.Name(), humanize.Comma(int64(n)), repeat)

	if gpu, ok := space.(*webgpu.Backend); ok {
		if n <= maxDeviceBench {
			typed, err := deviceBench(gpu, n, repeat, verify)
			if err != nil {
				return err
			}
			results = append(results, typed...)
		} else {
			fmt.Fprintf(out, "typed device kernels skipped: n > %s\n", humanize.Comma(maxDeviceBench))
		}
	}
	fmt.Fprintln(out)

	data := make([][]string, 0, len(results))
	for _, r := range results {
		speedup := "-"
		if r.parallel > 0 {
			speedup = fmt.Sprintf("%.2fx", float64(r.sequential)/float64(r.parallel))
		}
		data = append(data, []string{
			r.name,
			r.parallel.String(),
			r.sequential.String(),
			speedup,
			throughput(r.bytes, r.parallel),
			r.verified,
		})
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"PRIMITIVE", "PARALLEL", "SEQUENTIAL", "SPEEDUP", "THROUGHPUT", "VERIFIED"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

func runBench(space parallel.Space, n, repeat int, verify bool) ([]benchResult, error) {
	serial := parallel.Serial{}

	src := make([]float64, n)
	for i := range src {
		src[i] = float64(i % 7)
	}
	begin := make([]int64, n)
	end := make([]int64, n)
	for i := range begin {
		begin[i] = int64(3 * i)
		end[i] = int64(3*i + i%5)
	}

	work := make([]float64, n)
	var results []benchResult

	// Scans overwrite their input, so every run starts from a fresh copy.
	scans := []struct {
		name string
		run  func(s parallel.Space)
	}{
		{"exclusive_scan", func(s parallel.Space) {
			copy(work, src)
			kernels.ExclusivePrefixSum(s, n, work)
		}},
		{"inclusive_scan", func(s parallel.Space) {
			copy(work, src)
			kernels.InclusivePrefixSum(s, n, work)
		}},
	}
	want := floats.CumSum(make([]float64, n), src)
	for _, sc := range scans {
		r := benchResult{
			name:       sc.name,
			parallel:   best(space, repeat, sc.run),
			sequential: best(serial, repeat, sc.run),
			bytes:      16 * n,
			verified:   "-",
		}
		if verify {
			sc.run(space)
			space.Fence()
			got := work
			if sc.name == "exclusive_scan" {
				// Shift the exclusive result left to compare with CumSum.
				got = append(work[1:n:n], work[n-1]+src[n-1])
			}
			if !floats.EqualApprox(want, got, 1e-6) {
				return nil, fmt.Errorf("%s: result differs from reference", sc.name)
			}
			r.verified = "ok"
		}
		results = append(results, r)
	}

	var total float64
	r := benchResult{
		name:       "sum",
		parallel:   best(space, repeat, func(s parallel.Space) { total = kernels.Sum(s, n, src) }),
		sequential: best(serial, repeat, func(s parallel.Space) { kernels.Sum(s, n, src) }),
		bytes:      8 * n,
		verified:   "-",
	}
	if verify {
		if ref := floats.Sum(src); math.Abs(ref-total) > 1e-6*math.Max(1, math.Abs(ref)) {
			return nil, fmt.Errorf("sum: got %g, want %g", total, ref)
		}
		r.verified = "ok"
	}
	results = append(results, r)

	var diff int64
	r = benchResult{
		name:       "diff_sum",
		parallel:   best(space, repeat, func(s parallel.Space) { diff = kernels.DiffSum(s, n, begin, end) }),
		sequential: best(serial, repeat, func(s parallel.Space) { kernels.DiffSum(s, n, begin, end) }),
		bytes:      16 * n,
		verified:   "-",
	}
	if verify {
		if ref := kernels.DiffSum(serial, n, begin, end); ref != diff {
			return nil, fmt.Errorf("diff_sum: got %d, want %d", diff, ref)
		}
		r.verified = "ok"
	}
	results = append(results, r)

	other := make([]float64, n)
	copy(other, src)
	var equal bool
	r = benchResult{
		name:       "approx_equal",
		parallel:   best(space, repeat, func(s parallel.Space) { equal = kernels.ApproximatelyEqual(s, src, other, 1e-9) }),
		sequential: best(serial, repeat, func(s parallel.Space) { kernels.ApproximatelyEqual(s, src, other, 1e-9) }),
		bytes:      16 * n,
		verified:   "-",
	}
	if verify {
		if !equal {
			return nil, fmt.Errorf("approx_equal: identical arrays compared unequal")
		}
		r.verified = "ok"
	}
	results = append(results, r)

	return results, nil
}

// best returns the fastest of repeat runs of fn on s.
func best(s parallel.Space, repeat int, fn func(s parallel.Space)) time.Duration {
	fastest := time.Duration(math.MaxInt64)
	for range repeat {
		start := time.Now()
		fn(s)
		s.Fence()
		fastest = min(fastest, time.Since(start))
	}
	return fastest
}

func throughput(bytes int, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	perSecond := float64(bytes) / d.Seconds()
	return humanize.Bytes(uint64(perSecond)) + "/s"
}

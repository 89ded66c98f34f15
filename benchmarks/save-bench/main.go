// Command save-bench measures the save codec against general-purpose
// codecs on one synthetic profile fixture and prints a comparison table.
package main

import (
	"flag"
	"fmt"
	"os"
	"testing"
	"text/tabwriter"
	"time"

	fxcbor "github.com/fxamacker/cbor/v2"

	"github.com/savelab/sav.go/benchmarks/rostermsgp"
	"github.com/savelab/sav.go/benchmarks/savegen"
	"github.com/savelab/sav.go/sav"
)

type row struct {
	Name   string
	Size   int
	Enc    testing.BenchmarkResult
	Dec    testing.BenchmarkResult
	Err    error
	HasDec bool
}

func main() {
	characters := flag.Int("characters", savegen.DefaultNumCharacters, "number of characters in the fixture")
	items := flag.Int("items", savegen.DefaultItemsPerCharacter, "inventory items per character")
	flag.Parse()

	fmt.Fprintf(os.Stderr, "Building save fixture (characters=%d, items=%d) ...\n", *characters, *items)
	roster := savegen.BuildRosterFixture(*characters, *items)
	file := savegen.SaveFromRoster(roster)

	var rows []row

	savBytes, savErr := file.Encode(nil)
	rows = append(rows, bench("SAV (binary codec)", len(savBytes), savErr,
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := file.Encode(nil); err != nil {
					b.Fatalf("Encode: %v", err)
				}
			}
		},
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := sav.Decode(savBytes, nil); err != nil {
					b.Fatalf("Decode: %v", err)
				}
			}
		},
	))

	jsonBytes, jsonErr := sav.ToJSON(file, "")
	if savErr != nil {
		jsonErr = savErr
	}
	rows = append(rows, bench("JSON bridge (annotated)", len(jsonBytes), jsonErr,
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := sav.ToJSON(file, ""); err != nil {
					b.Fatalf("ToJSON: %v", err)
				}
			}
		},
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := sav.FromJSON(jsonBytes, nil); err != nil {
					b.Fatalf("FromJSON: %v", err)
				}
			}
		},
	))

	cborBytes, cborErr := fxcbor.Marshal(roster)
	rows = append(rows, bench("CBOR roster (fxamacker/cbor)", len(cborBytes), cborErr,
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := fxcbor.Marshal(roster); err != nil {
					b.Fatalf("Marshal: %v", err)
				}
			}
		},
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				var out savegen.Roster
				if err := fxcbor.Unmarshal(cborBytes, &out); err != nil {
					b.Fatalf("Unmarshal: %v", err)
				}
			}
		},
	))

	msgpBytes := rostermsgp.AppendRoster(nil, roster)
	rows = append(rows, bench("MSGP roster (tinylib/msgp)", len(msgpBytes), nil,
		func(b *testing.B) {
			var out []byte
			for i := 0; i < b.N; i++ {
				out = rostermsgp.AppendRoster(out[:0], roster)
			}
			_ = out
		},
		func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, rest, err := rostermsgp.ReadRoster(msgpBytes); err != nil || len(rest) != 0 {
					b.Fatalf("ReadRoster: %v (rest=%d)", err, len(rest))
				}
			}
		},
	))

	printTable(rows, *characters, *items)
}

func bench(name string, size int, err error, enc, dec func(b *testing.B)) row {
	r := row{Name: name, Size: size, Err: err}
	if err != nil || size == 0 {
		return r
	}
	wrap := func(fn func(b *testing.B)) func(b *testing.B) {
		return func(b *testing.B) {
			b.SetBytes(int64(size))
			b.ReportAllocs()
			b.ResetTimer()
			fn(b)
		}
	}
	r.Enc = testing.Benchmark(wrap(enc))
	if dec != nil {
		r.Dec = testing.Benchmark(wrap(dec))
		r.HasDec = true
	}
	return r
}

func printTable(rows []row, characters, items int) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# Save codec comparison (characters=%d, items=%d)\n", characters, items)
	fmt.Fprintf(tw, "# Timestamp: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(tw, "Codec\tBytes\tEnc MB/s\tEnc ns/op\tEnc allocs/op\tDec MB/s\tDec ns/op\tDec allocs/op\tError")
	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%d\t-\t-\t-\t-\t-\t-\t%v\n", r.Name, r.Size, r.Err)
			continue
		}
		decMBps, decNs, decAllocs := "-", "-", "-"
		if r.HasDec {
			decMBps = fmt.Sprintf("%.2f", mbps(r.Size, r.Dec))
			decNs = fmt.Sprintf("%d", r.Dec.NsPerOp())
			decAllocs = fmt.Sprintf("%d", r.Dec.AllocsPerOp())
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\t%d\t%s\t%s\t%s\t-\n",
			r.Name, r.Size,
			mbps(r.Size, r.Enc), r.Enc.NsPerOp(), r.Enc.AllocsPerOp(),
			decMBps, decNs, decAllocs)
	}
	_ = tw.Flush()
}

func mbps(size int, br testing.BenchmarkResult) float64 {
	ns := float64(br.NsPerOp())
	if ns <= 0 {
		return 0
	}
	return float64(size) * (1e9 / ns) / (1024 * 1024)
}

package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/savelab/sav.go/sav"
)

// CLI is the savconv command line: decode a save file to annotated JSON,
// encode JSON back into a save file, verify round trips, or dump a
// readable tree. A YAML struct table extends the built-in layouts when a
// game update introduces new fixed-shape struct types.
type CLI struct {
	StructTable string `short:"t" help:"YAML file mapping struct type names to payload layouts" type:"existingfile"`
	Verbose     bool   `short:"v" help:"Enable debug logging"`

	Decode DecodeCmd `cmd:"" help:"Decode a save file to annotated JSON"`
	Encode EncodeCmd `cmd:"" help:"Encode annotated JSON back into a save file"`
	Verify VerifyCmd `cmd:"" help:"Check that a save file survives a decode/encode round trip"`
	Dump   DumpCmd   `cmd:"" help:"Print a save file as a readable tree"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("savconv"),
		kong.Description("Convert property-bag save files to and from annotated JSON."),
	)

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx.FatalIfErrorf(ctx.Run(&cli))
}

func (c *CLI) table() (*sav.TypeTable, error) {
	if c.StructTable == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.StructTable)
	if err != nil {
		return nil, err
	}
	return sav.LoadTypeTable(data)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type DecodeCmd struct {
	Input   string `arg:"" help:"Save file to decode" type:"existingfile"`
	Output  string `short:"o" help:"Output path; stdout when omitted"`
	Indent  string `help:"JSON indent string" default:"  "`
	Compact bool   `help:"Emit compact JSON"`
}

func (c *DecodeCmd) Run(cli *CLI) error {
	table, err := cli.table()
	if err != nil {
		return err
	}
	f, err := sav.DecodeFile(c.Input, table)
	if err != nil {
		return err
	}
	slog.Debug("decoded",
		"version", f.Version,
		"build", f.BuildNumber,
		"names", len(f.Archive.Names),
		"objects", len(f.Archive.Objects))

	indent := c.Indent
	if c.Compact {
		indent = ""
	}
	out, err := sav.ToJSON(f, indent)
	if err != nil {
		return err
	}
	return writeOutput(c.Output, append(out, '\n'))
}

type EncodeCmd struct {
	Input  string `arg:"" help:"JSON document to encode" type:"existingfile"`
	Output string `short:"o" required:"" help:"Save file to write"`
}

func (c *EncodeCmd) Run(cli *CLI) error {
	table, err := cli.table()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	f, err := sav.FromJSON(data, table)
	if err != nil {
		return err
	}
	out, err := f.Encode(table)
	if err != nil {
		return err
	}
	slog.Debug("encoded", "bytes", len(out), "objects", len(f.Archive.Objects))
	return os.WriteFile(c.Output, out, 0o644)
}

type VerifyCmd struct {
	Input string `arg:"" help:"Save file to verify" type:"existingfile"`
	JSON  bool   `help:"Also round trip through the JSON form"`
}

func (c *VerifyCmd) Run(cli *CLI) error {
	table, err := cli.table()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	f, err := sav.Decode(data, table)
	if err != nil {
		return err
	}
	out, err := f.Encode(table)
	if err != nil {
		return err
	}
	if err := compare(data, out, "binary"); err != nil {
		return err
	}

	if c.JSON {
		text, err := sav.ToJSON(f, "")
		if err != nil {
			return err
		}
		back, err := sav.FromJSON(text, table)
		if err != nil {
			return err
		}
		out2, err := back.Encode(table)
		if err != nil {
			return err
		}
		if err := compare(data, out2, "json"); err != nil {
			return err
		}
	}
	slog.Info("verified", "bytes", len(data), "objects", len(f.Archive.Objects), "json", c.JSON)
	fmt.Println("ok")
	return nil
}

// compare reports the first byte where the re-encoded image diverges.
func compare(want, got []byte, stage string) error {
	if bytes.Equal(want, got) {
		return nil
	}
	n := len(want)
	if len(got) < n {
		n = len(got)
	}
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return fmt.Errorf("%s round trip differs at offset %#x: %#02x != %#02x", stage, i, got[i], want[i])
		}
	}
	return fmt.Errorf("%s round trip differs in length: %d != %d bytes", stage, len(got), len(want))
}

type DumpCmd struct {
	Input  string `arg:"" help:"Save file to dump" type:"existingfile"`
	Output string `short:"o" help:"Output path; stdout when omitted"`
}

func (c *DumpCmd) Run(cli *CLI) error {
	table, err := cli.table()
	if err != nil {
		return err
	}
	f, err := sav.DecodeFile(c.Input, table)
	if err != nil {
		return err
	}
	return writeOutput(c.Output, []byte(sav.Dump(f)))
}

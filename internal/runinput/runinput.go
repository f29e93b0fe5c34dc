/*
Package runinput parses the FASTA-like "name / sequence / structure"
input the cmd/ff-trajectory and cmd/ff-timecourse front-ends both read,
the same three-line shape package macrostate uses for a macrostate
file's header and sequence line.
*/
package runinput

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fuzzyfold/foldkinetics/structure"
)

// Input is one parsed trajectory seed: a named sequence together with
// its starting secondary structure.
type Input struct {
	Name      string
	Seq       structure.Sequence
	PairTable structure.PairTable
}

// Parse reads a ">name" header line, a sequence line, and a dot-bracket
// structure line from r. source is used only to annotate errors.
func Parse(r io.Reader, source string) (Input, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return Input{}, fmt.Errorf("runinput: %s: missing header line", source)
	}
	header := strings.TrimSpace(scanner.Text())
	name, ok := strings.CutPrefix(header, ">")
	if !ok {
		return Input{}, fmt.Errorf("runinput: %s: header line must start with '>'", source)
	}

	if !scanner.Scan() {
		return Input{}, fmt.Errorf("runinput: %s: missing sequence line", source)
	}
	seq, err := structure.ParseSequence(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return Input{}, fmt.Errorf("runinput: %s: %w", source, err)
	}

	if !scanner.Scan() {
		return Input{}, fmt.Errorf("runinput: %s: missing structure line", source)
	}
	db := structure.DotBracket(strings.TrimSpace(scanner.Text()))
	pt, err := structure.ParsePairTable(db)
	if err != nil {
		return Input{}, fmt.Errorf("runinput: %s: %w", source, err)
	}
	if len(pt) != len(seq) {
		return Input{}, fmt.Errorf("runinput: %s: structure length %d does not match sequence length %d", source, len(pt), len(seq))
	}

	if err := scanner.Err(); err != nil {
		return Input{}, fmt.Errorf("runinput: %s: %w", source, err)
	}

	return Input{Name: strings.TrimSpace(name), Seq: seq, PairTable: pt}, nil
}

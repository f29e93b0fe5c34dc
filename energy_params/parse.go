package energy_params

import (
	"bufio"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

/*
This file reads RNAfold parameter files (v2.0 format, as distributed
with ViennaRNA) into rawEnergyParams. The format is a sequence of
`# <section>` headers, each followed by whitespace-separated integer
tables whose dimensions are fixed by the section name. All values are
37C measurements; scale.go converts them to the requested temperature.

Two quirks of the format shape the code below. Nucleotide dimensions
are tabulated with length NbDistinguishableNucleotides+1 because the
nucleotide encoding starts at 1, so index 0 of those dimensions exists
in the file and is read only for a base outside A, C, G, U (such as
N). The int22 sections are the exception:
they omit both the unused zeroth nucleotide index and the non-standard
pair row/column, so their tables are padded back out after parsing to
line up with every other table's indexing.
*/

const (
	// Fallback for parameter files whose Misc section omits the log
	// extrapolation constant.
	defaultLogExtrapolationConstantAt37C float64 = 107.856

	// inf marks forbidden table entries. It is far below the int range,
	// so a sum of a few forbidden entries cannot overflow.
	inf int = 10000000
)

// rawEnergyParams collects a parameter file's 37C (dG, dH) tables
// before temperature scaling. Field pairs mirror the file's section
// pairs: each energy table has an enthalpy twin.
type rawEnergyParams struct {
	stackingPairEnergy37C [][]int
	stackingPairEnthalpy  [][]int

	hairpinLoopEnergy37C  []int
	hairpinLoopEnthalpy   []int
	bulgeEnergy37C        []int
	bulgeEnthalpy         []int
	interiorLoopEnergy37C []int
	interiorLoopEnthalpy  []int

	mismatchExteriorLoopEnergy37C    [][][]int
	mismatchExteriorLoopEnthalpy     [][][]int
	mismatchHairpinLoopEnergy37C     [][][]int
	mismatchHairpinLoopEnthalpy      [][][]int
	mismatchInteriorLoopEnergy37C    [][][]int
	mismatchInteriorLoopEnthalpy     [][][]int
	mismatch1xnInteriorLoopEnergy37C [][][]int
	mismatch1xnInteriorLoopEnthalpy  [][][]int
	mismatch2x3InteriorLoopEnergy37C [][][]int
	mismatch2x3InteriorLoopEnthalpy  [][][]int
	mismatchMultiLoopEnergy37C       [][][]int
	mismatchMultiLoopEnthalpy        [][][]int

	danglingEndsFivePrimeEnergy37C  [][]int
	danglingEndsFivePrimeEnthalpy   [][]int
	danglingEndsThreePrimeEnergy37C [][]int
	danglingEndsThreePrimeEnthalpy  [][]int

	interior1x1LoopEnergy37C [][][][]int
	interior1x1LoopEnthalpy  [][][][]int
	interior2x1LoopEnergy37C [][][][][]int
	interior2x1LoopEnthalpy  [][][][][]int
	interior2x2LoopEnergy37C [][][][][][]int
	interior2x2LoopEnthalpy  [][][][][][]int

	multiLoopBase37C         int
	multiLoopBaseEnthalpy    int
	multiLoopClosing37C      int
	multiLoopClosingEnthalpy int
	multiLoopIntern37C       int
	multiLoopInternEnthalpy  int
	ninio37C                 int
	ninioEnthalpy            int
	maxNinio                 int
	terminalAU37C            int
	terminalAUEnthalpy       int
	logExtrapolationConstant float64

	triLoopEnergy37C   map[string]int
	triLoopEnthalpy    map[string]int
	tetraLoopEnergy37C map[string]int
	tetraLoopEnthalpy  map[string]int
	hexaLoopEnergy37C  map[string]int
	hexaLoopEnthalpy   map[string]int
}

func newRawEnergyParams(set EnergyParamsSet) (raw rawEnergyParams) {
	file, err := embeddedEnergyParamsDirectory.Open(energyParamsDirectory + "/" + energyParamFileNames[set])
	if err != nil {
		panic(fmt.Sprintf("energy_params: opening embedded parameter file: %v", err))
	}
	defer file.Close()

	p := &paramScanner{s: bufio.NewScanner(file)}

	header, ok := p.line()
	if ok && header != "## RNAfold parameter file v2.0" {
		panic("energy_params: missing header line, not an RNAfold parameter file v2.0")
	}

	const (
		pairDim = NbDistinguishableBasePairs
		nucDim  = NbDistinguishableNucleotides + 1
	)
	loopTable := func() []int { return p.parseInts(MaxLenLoop + 1) }
	pairTable := func() [][]int { return p.parseTensor(pairDim, pairDim).([][]int) }
	mismatchTable := func() [][][]int { return p.parseTensor(pairDim, nucDim, nucDim).([][][]int) }
	dangleTable := func() [][]int { return p.parseTensor(pairDim, nucDim).([][]int) }
	int11Table := func() [][][][]int {
		return p.parseTensor(pairDim, pairDim, nucDim, nucDim).([][][][]int)
	}
	int21Table := func() [][][][][]int {
		return p.parseTensor(pairDim, pairDim, nucDim, nucDim, nucDim).([][][][][]int)
	}
	int22Table := func() [][][][][][]int {
		t := p.parseTensor(pairDim-1, pairDim-1, nucDim-1, nucDim-1, nucDim-1, nucDim-1).([][][][][][]int)
		t = padTensor(t, true, 0, 0, 1, 1, 1, 1).([][][][][][]int)
		return padTensor(t, false, 1, 1, 0, 0, 0, 0).([][][][][][]int)
	}

	var section string
	for line, ok := p.line(); ok; line, ok = p.line() {
		if n, _ := fmt.Sscanf(line, "# %255s", &section); n == 0 {
			continue
		}
		if section == "END" {
			break
		}

		switch section {
		case "stack":
			raw.stackingPairEnergy37C = pairTable()
		case "stack_enthalpies":
			raw.stackingPairEnthalpy = pairTable()

		case "hairpin":
			raw.hairpinLoopEnergy37C = loopTable()
		case "hairpin_enthalpies":
			raw.hairpinLoopEnthalpy = loopTable()
		case "bulge":
			raw.bulgeEnergy37C = loopTable()
		case "bulge_enthalpies":
			raw.bulgeEnthalpy = loopTable()
		case "interior":
			raw.interiorLoopEnergy37C = loopTable()
		case "interior_enthalpies":
			raw.interiorLoopEnthalpy = loopTable()

		case "mismatch_exterior":
			raw.mismatchExteriorLoopEnergy37C = mismatchTable()
		case "mismatch_exterior_enthalpies":
			raw.mismatchExteriorLoopEnthalpy = mismatchTable()
		case "mismatch_hairpin":
			raw.mismatchHairpinLoopEnergy37C = mismatchTable()
		case "mismatch_hairpin_enthalpies":
			raw.mismatchHairpinLoopEnthalpy = mismatchTable()
		case "mismatch_interior":
			raw.mismatchInteriorLoopEnergy37C = mismatchTable()
		case "mismatch_interior_enthalpies":
			raw.mismatchInteriorLoopEnthalpy = mismatchTable()
		case "mismatch_interior_1n":
			raw.mismatch1xnInteriorLoopEnergy37C = mismatchTable()
		case "mismatch_interior_1n_enthalpies":
			raw.mismatch1xnInteriorLoopEnthalpy = mismatchTable()
		case "mismatch_interior_23":
			raw.mismatch2x3InteriorLoopEnergy37C = mismatchTable()
		case "mismatch_interior_23_enthalpies":
			raw.mismatch2x3InteriorLoopEnthalpy = mismatchTable()
		case "mismatch_multi":
			raw.mismatchMultiLoopEnergy37C = mismatchTable()
		case "mismatch_multi_enthalpies":
			raw.mismatchMultiLoopEnthalpy = mismatchTable()

		case "int11":
			raw.interior1x1LoopEnergy37C = int11Table()
		case "int11_enthalpies":
			raw.interior1x1LoopEnthalpy = int11Table()
		case "int21":
			raw.interior2x1LoopEnergy37C = int21Table()
		case "int21_enthalpies":
			raw.interior2x1LoopEnthalpy = int21Table()
		case "int22":
			raw.interior2x2LoopEnergy37C = int22Table()
		case "int22_enthalpies":
			raw.interior2x2LoopEnthalpy = int22Table()

		case "dangle5":
			raw.danglingEndsFivePrimeEnergy37C = dangleTable()
		case "dangle5_enthalpies":
			raw.danglingEndsFivePrimeEnthalpy = dangleTable()
		case "dangle3":
			raw.danglingEndsThreePrimeEnergy37C = dangleTable()
		case "dangle3_enthalpies":
			raw.danglingEndsThreePrimeEnthalpy = dangleTable()

		case "ML_params":
			ml := p.parseInts(6)
			raw.multiLoopBase37C, raw.multiLoopBaseEnthalpy = ml[0], ml[1]
			raw.multiLoopClosing37C, raw.multiLoopClosingEnthalpy = ml[2], ml[3]
			raw.multiLoopIntern37C, raw.multiLoopInternEnthalpy = ml[4], ml[5]

		case "NINIO":
			ninio := p.parseInts(3)
			raw.ninio37C, raw.ninioEnthalpy, raw.maxNinio = ninio[0], ninio[1], ninio[2]

		case "Triloops":
			raw.triLoopEnergy37C, raw.triLoopEnthalpy = p.parseLoopBonuses()
		case "Tetraloops":
			raw.tetraLoopEnergy37C, raw.tetraLoopEnthalpy = p.parseLoopBonuses()
		case "Hexaloops":
			raw.hexaLoopEnergy37C, raw.hexaLoopEnthalpy = p.parseLoopBonuses()

		case "Misc":
			var misc []float64
			for _, tok := range p.fields() {
				misc = append(misc, parseFloat(tok))
			}
			raw.terminalAU37C = int(misc[2])
			raw.terminalAUEnthalpy = int(misc[3])
			// older files end the Misc line after the enthalpies
			if len(misc) > 4 {
				raw.logExtrapolationConstant = misc[5]
			} else {
				raw.logExtrapolationConstant = defaultLogExtrapolationConstantAt37C
			}
		}
	}

	return
}

// paramScanner layers the format's lexical quirks over a
// bufio.Scanner: parameter files mix blank lines, C-style /* ... */
// comments, and tables whose values spill across any number of lines.
type paramScanner struct {
	s *bufio.Scanner
}

func (p *paramScanner) line() (string, bool) {
	ok := p.s.Scan()
	if err := p.s.Err(); err != nil {
		panic(fmt.Sprintf("energy_params: reading parameter file: %v", err))
	}
	if !ok {
		return "", false
	}
	return p.s.Text(), true
}

// contentLine returns the next line that is non-blank once comments
// are stripped.
func (p *paramScanner) contentLine() string {
	for line, ok := p.line(); ok; line, ok = p.line() {
		line = stripComments(line)
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	panic("energy_params: unexpected end of parameter file")
}

// fields returns the whitespace-separated tokens of the next content
// line.
func (p *paramScanner) fields() []string {
	return strings.Fields(p.contentLine())
}

// parseInts reads content lines until exactly n integer values have
// been collected. Overshooting n means the file's table does not have
// the dimensions its section header implies.
func (p *paramScanner) parseInts(n int) []int {
	out := make([]int, 0, n)
	for len(out) < n {
		for _, tok := range p.fields() {
			out = append(out, parseInt(tok))
		}
	}
	if len(out) > n {
		panic(fmt.Sprintf("energy_params: expected %d values in table, found %d", n, len(out)))
	}
	return out
}

// parseLoopBonuses reads a Triloops/Tetraloops/Hexaloops section: one
// `SEQUENCE energy enthalpy` row per line, terminated by a blank line
// or the end of the file.
func (p *paramScanner) parseLoopBonuses() (energies, enthalpies map[string]int) {
	energies, enthalpies = make(map[string]int), make(map[string]int)
	for line, ok := p.line(); ok; line, ok = p.line() {
		if strings.TrimSpace(line) == "" {
			return
		}
		line = stripComments(line)
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := strings.Fields(line)
		if len(row) != 3 {
			panic(fmt.Sprintf("energy_params: loop bonus row needs 3 fields, got %d", len(row)))
		}
		energies[row[0]] = parseInt(row[1])
		enthalpies[row[0]] = parseInt(row[2])
	}
	return
}

func stripComments(line string) string {
	for {
		start := strings.Index(line, "/*")
		if start == -1 {
			return line
		}
		end := strings.Index(line, "*/")
		if end == -1 {
			panic("energy_params: unterminated comment in parameter file")
		}
		line = line[:start] + line[end+2:]
	}
}

func parseInt(tok string) int {
	if tok == "INF" {
		return inf
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		panic(fmt.Sprintf("energy_params: bad integer %q in parameter file", tok))
	}
	return v
}

func parseFloat(tok string) float64 {
	if tok == "INF" {
		return float64(inf)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		panic(fmt.Sprintf("energy_params: bad number %q in parameter file", tok))
	}
	return v
}

// The parameter tables are nested []...[]int values of rank 1 through
// 6. Rather than one reader and one padder per rank, the helpers
// below walk the nesting with reflection; the rank only decides how
// deep the recursion goes.

// nestedIntType is the []...[]int type with the given nesting depth.
func nestedIntType(depth int) reflect.Type {
	t := reflect.TypeOf(0)
	for i := 0; i < depth; i++ {
		t = reflect.SliceOf(t)
	}
	return t
}

// parseTensor reads a nested integer table with the given dimensions,
// outermost first. The concrete type of the result is the
// corresponding []...[]int; callers type-assert it back.
func (p *paramScanner) parseTensor(dims ...int) interface{} {
	return p.parseTensorValue(dims).Interface()
}

func (p *paramScanner) parseTensorValue(dims []int) reflect.Value {
	if len(dims) == 1 {
		return reflect.ValueOf(p.parseInts(dims[0]))
	}
	out := reflect.MakeSlice(nestedIntType(len(dims)), dims[0], dims[0])
	for i := 0; i < dims[0]; i++ {
		out.Index(i).Set(p.parseTensorValue(dims[1:]))
	}
	return out
}

// tensorDims returns the length of each dimension of a nested
// []...[]int value.
func tensorDims(values interface{}) []int {
	var dims []int
	v := reflect.ValueOf(values)
	for v.Kind() == reflect.Slice {
		dims = append(dims, v.Len())
		if v.Len() == 0 {
			for t := v.Type().Elem(); t.Kind() == reflect.Slice; t = t.Elem() {
				dims = append(dims, 0)
			}
			break
		}
		v = v.Index(0)
	}
	return dims
}

// padTensor grows a nested []...[]int table by offsets[d] inf-filled
// entries along each dimension d, at the front when front is true and
// at the back otherwise. Inf blocks take the padded sizes of the
// deeper dimensions, so the result is rectangular.
func padTensor(values interface{}, front bool, offsets ...int) interface{} {
	dims := tensorDims(values)
	if len(dims) != len(offsets) {
		panic("energy_params: padTensor offsets do not match tensor rank")
	}
	newDims := make([]int, len(dims))
	for i := range dims {
		newDims[i] = dims[i] + offsets[i]
	}
	return padValue(reflect.ValueOf(values), front, offsets, newDims).Interface()
}

func padValue(v reflect.Value, front bool, offsets, newDims []int) reflect.Value {
	out := reflect.MakeSlice(v.Type(), 0, newDims[0])
	pad := func() {
		for i := 0; i < offsets[0]; i++ {
			if len(newDims) == 1 {
				out = reflect.Append(out, reflect.ValueOf(inf))
			} else {
				out = reflect.Append(out, infTensor(newDims[1:]))
			}
		}
	}
	body := func() {
		for i := 0; i < v.Len(); i++ {
			entry := v.Index(i)
			if len(newDims) > 1 {
				entry = padValue(entry, front, offsets[1:], newDims[1:])
			}
			out = reflect.Append(out, entry)
		}
	}
	if front {
		pad()
		body()
	} else {
		body()
		pad()
	}
	return out
}

// infTensor builds an inf-filled nested []...[]int with the given
// dimensions.
func infTensor(dims []int) reflect.Value {
	out := reflect.MakeSlice(nestedIntType(len(dims)), dims[0], dims[0])
	for i := 0; i < dims[0]; i++ {
		if len(dims) == 1 {
			out.Index(i).SetInt(int64(inf))
		} else {
			out.Index(i).Set(infTensor(dims[1:]))
		}
	}
	return out
}

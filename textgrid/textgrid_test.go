package textgrid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"unicode/utf16"
)

const longGrid = `File type = "ooTextFile"
Object class = "TextGrid"

xmin = 0
xmax = 2.5
tiers? <exists>
size = 2
item []:
    item [1]:
        class = "IntervalTier"
        name = "silences"
        xmin = 0
        xmax = 2.5
        intervals: size = 4
        intervals [1]:
            xmin = 0
            xmax = 0.30001
            text = ""
        intervals [2]:
            xmin = 0.30001
            xmax = 0.5
            text = "sounding"
        intervals [3]:
            xmin = 0.5
            xmax = 1.75
            text = ""
        intervals [4]:
            xmin = 1.75
            xmax = 2.5
            text = "say ""hi"""
    item [2]:
        class = "TextTier"
        name = "beats"
        xmin = 0
        xmax = 2.5
        points: size = 1
        points [1]:
            number = 1.2
            mark = "b1"
`

const shortGrid = `File type = "ooTextFile"
Object class = "TextGrid"

0
2.5
<exists>
1
"IntervalTier"
"silences"
0
2.5
3
0
1
""
1
2
"x"
2
2.5
""
`

func TestParse_LongFormat(t *testing.T) {
	t.Parallel()

	g, err := Parse(strings.NewReader(longGrid))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.XMax != 2.5 {
		t.Fatalf("XMax=%v, want 2.5", g.XMax)
	}
	if len(g.Tiers) != 2 {
		t.Fatalf("tiers=%d, want 2", len(g.Tiers))
	}
	tier, err := g.Tier("")
	if err != nil {
		t.Fatalf("Tier: %v", err)
	}
	if tier.Name != "silences" || len(tier.Intervals) != 4 {
		t.Fatalf("tier=%q intervals=%d", tier.Name, len(tier.Intervals))
	}
	lab := tier.Labeled()
	if len(lab) != 2 {
		t.Fatalf("labeled=%d, want 2", len(lab))
	}
	if lab[0].XMin != 0.30001 || lab[0].XMax != 0.5 || lab[0].Mark != "sounding" {
		t.Fatalf("lab[0]=%+v", lab[0])
	}
	if lab[1].Mark != `say "hi"` {
		t.Fatalf("escaped mark=%q", lab[1].Mark)
	}

	beats, err := g.Tier("beats")
	if err != nil {
		t.Fatalf("Tier(beats): %v", err)
	}
	if len(beats.Points) != 1 || beats.Points[0].Time != 1.2 || beats.Points[0].Mark != "b1" {
		t.Fatalf("points=%+v", beats.Points)
	}
	if _, err := g.Tier("missing"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}

func TestParse_ShortFormat(t *testing.T) {
	t.Parallel()

	g, err := Parse(strings.NewReader(shortGrid))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lab := g.Tiers[0].Labeled()
	if len(lab) != 1 || lab[0].XMin != 1 || lab[0].XMax != 2 || lab[0].Mark != "x" {
		t.Fatalf("labeled=%+v", lab)
	}
}

func TestParse_UTF16(t *testing.T) {
	t.Parallel()

	units := utf16.Encode([]rune(shortGrid))
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range units {
		_ = binary.Write(&buf, binary.LittleEndian, u)
	}
	g, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Tiers[0].Intervals) != 3 {
		t.Fatalf("intervals=%d, want 3", len(g.Tiers[0].Intervals))
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"wrong class":  "File type = \"ooTextFile\"\nObject class = \"Pitch\"\n",
		"truncated":    strings.Split(shortGrid, "\"x\"")[0],
		"unterminated": "File type = \"ooTextFile\nObject",
		"backwards":    strings.Replace(shortGrid, "1\n2\n\"x\"", "2\n1\n\"x\"", 1),
	}
	for name, in := range cases {
		if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: err=%v, want ErrMalformed", name, err)
		}
	}
}

func TestParse_NoTiers(t *testing.T) {
	t.Parallel()

	g, err := Parse(strings.NewReader("File type = \"ooTextFile\"\nObject class = \"TextGrid\"\n0\n1\n<absent>\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := g.Tier(""); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err=%v, want ErrMalformed", err)
	}
}

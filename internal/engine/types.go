package engine

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultOutputFile is written when no output path is given.
const DefaultOutputFile = "obfuscated.py"

type Options struct {
	InputFile  string
	OutputFile string
	UseStdin   bool
	UseStdout  bool

	Seed       int64
	Seeded     bool // false draws a fresh seed and reports it
	Iterations int

	ConfigPath       string
	ConfigExplicit   bool // --config was given; a missing file is an error
	ShowTranslations bool
	RewriteImports   bool
	Python           string // interpreter for parsing and -validate (empty = search PATH)
	ParseTimeout     time.Duration

	Validate        bool   // After obfuscation: run original and obfuscated, compare outputs
	ValidateArgs    string // Optional args for --validate: e.g. "--name x --count 5"
	ValidateStderr  string // strict|ignore for --validate
	ValidateTimeout int    // seconds for --validate (0=30)

	Report bool // Emit obfuscation report after build
	DryRun bool // Analyze only, no transformation or output
	Fuzz   int  // Number of variants with distinct seeds (name.vN.py)
	Quiet  bool

	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

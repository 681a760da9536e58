// Package main implements the Flux compiler entry point.
//
// Usage:
//
//	fluxc <input.fl> [options]
//
// Options:
//
//	-o <file>         Output file path
//	--emit <format>   Output format: llvm-ir, bitcode, asm, obj, exe (default: exe)
//	-O0..-O3          Optimization level (default: -O0)
//	--target <triple> Target triple (default: host)
//	--dump-ast        Print the AST to stdout
//	--dump-tokens     Print the token stream to stdout
//	--help            Show this help message
//	--version         Show version information
package main

import (
	"fmt"
	"os"

	"github.com/otabekoff/flux/internal/diag"
	"github.com/otabekoff/flux/internal/sema"
	"github.com/otabekoff/flux/internal/source"
	"github.com/otabekoff/flux/internal/syntax"
)

// Version information.
const version = "0.1.0"

// emitFormat is the requested output format.
type emitFormat uint8

const (
	emitExe emitFormat = iota
	emitLLVMIR
	emitBitcode
	emitAsm
	emitObj
)

// options holds the parsed driver options.
type options struct {
	inputFile  string
	outputFile string
	target     string
	emit       emitFormat
	optLevel   int
	dumpAST    bool
	dumpTokens bool
	help       bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, ok := parseArgs(args)
	if !ok {
		return 1
	}

	if opts.help {
		printUsage(os.Stdout)
		return 0
	}
	if opts.version {
		fmt.Printf("Flux Compiler v%s\n", version)
		return 0
	}
	if opts.inputFile == "" {
		fmt.Fprintln(os.Stderr, "error: no input file")
		printUsage(os.Stderr)
		return 1
	}

	mgr := source.NewManager()
	id, err := mgr.LoadFile(opts.inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not open file '%s'\n", opts.inputFile)
		return 1
	}
	src := mgr.Content(id)

	eng := diag.NewEngine()

	// Phase 1: lexical analysis
	if opts.dumpTokens {
		lexer := syntax.NewLexer(opts.inputFile, src, eng)
		for _, tok := range lexer.LexAll() {
			fmt.Printf("%-16s %-20q @ %d:%d\n",
				tok.Kind, tok.Text, tok.Pos.Line(), tok.Pos.Col())
		}
		if eng.HasErrors() {
			return 1
		}
	}

	// Phase 2: parsing
	parser := syntax.NewParser(opts.inputFile, src, eng)
	module := parser.ParseModule()

	if opts.dumpAST {
		syntax.Fprint(os.Stdout, module)
	}

	if eng.HasErrors() {
		fmt.Fprintf(os.Stderr, "%d error(s) generated.\n", eng.ErrorCount())
		return 1
	}

	// Phase 3: semantic analysis
	global := sema.NewScope("global", nil)
	if !sema.Analyze(module, global, eng) {
		fmt.Fprintf(os.Stderr, "%d error(s) generated.\n", eng.ErrorCount())
		return 1
	}

	// The validated AST is this front-end's product; no back-end is
	// wired into this build.
	if !opts.dumpAST && !opts.dumpTokens {
		fmt.Fprintf(os.Stderr, "fluxc: front-end passed; code generation is not available in this build\n")
	}
	return 0
}

// parseArgs parses argv. Returns ok=false on an unknown option or a
// malformed flag.
func parseArgs(args []string) (options, bool) {
	opts := options{emit: emitExe}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--help", "-h":
			opts.help = true
		case "--version", "-v":
			opts.version = true
		case "--dump-ast":
			opts.dumpAST = true
		case "--dump-tokens":
			opts.dumpTokens = true
		case "-O0":
			opts.optLevel = 0
		case "-O1":
			opts.optLevel = 1
		case "-O2":
			opts.optLevel = 2
		case "-O3":
			opts.optLevel = 3

		case "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "error: -o requires an argument")
				return opts, false
			}
			i++
			opts.outputFile = args[i]

		case "--emit":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "error: --emit requires an argument")
				return opts, false
			}
			i++
			switch args[i] {
			case "llvm-ir":
				opts.emit = emitLLVMIR
			case "bitcode":
				opts.emit = emitBitcode
			case "asm":
				opts.emit = emitAsm
			case "obj":
				opts.emit = emitObj
			case "exe":
				opts.emit = emitExe
			default:
				fmt.Fprintf(os.Stderr, "error: unknown output format '%s'\n", args[i])
				return opts, false
			}

		case "--target":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "error: --target requires an argument")
				return opts, false
			}
			i++
			opts.target = args[i]

		default:
			if len(arg) > 0 && arg[0] == '-' {
				fmt.Fprintf(os.Stderr, "error: unknown option '%s'\n", arg)
				return opts, false
			}
			opts.inputFile = arg
		}
	}

	return opts, true
}

func printUsage(w *os.File) {
	fmt.Fprintf(w, `Flux Compiler v%s

Usage: fluxc <input.fl> [options]

Options:
  -o <file>         Output file path
  --emit <format>   Output format: llvm-ir, bitcode, asm, obj, exe (default: exe)
  -O0, -O1, -O2, -O3  Optimization level (default: -O0)
  --target <triple> Target triple (default: host)
  --dump-ast        Print the AST to stdout
  --dump-tokens     Print the token stream to stdout
  --help            Show this help message
  --version         Show version information
`, version)
}

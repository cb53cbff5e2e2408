package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/tagvm/asm"
	"github.com/wippyai/tagvm/bytecode"
	"github.com/wippyai/tagvm/config"
	"github.com/wippyai/tagvm/errors"
	"github.com/wippyai/tagvm/vm"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: tagvm run [-config file] [-core file] [-compact] [-input file] <program.cb>")
	fmt.Fprintln(os.Stderr, "       tagvm debug [-config file] [-compact] <program.cb>")
	fmt.Fprintln(os.Stderr, "       tagvm view [-text] [-compact] <program.cb>")
	fmt.Fprintln(os.Stderr, "       tagvm view -core <dump>")
	fmt.Fprintln(os.Stderr, "       tagvm asm [-compact] <program.cb>")
	fmt.Fprintln(os.Stderr, "       tagvm compile [-o out.cb] <source.tasm>")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = runCmd(args)
	case "debug":
		err = debugCmd(args)
	case "view":
		err = viewCmd(args)
	case "asm":
		err = asmCmd(args)
	case "compile":
		err = compileCmd(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readProgram loads and decodes a program file in either binary form.
// Unrecognized tag bytes are reported on stderr but do not stop the load.
func readProgram(path string, compact bool) (bytecode.Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read program", err)
	}

	var (
		s      bytecode.Stream
		report bytecode.Report
	)
	if compact {
		s, report, err = bytecode.DecodeCompact(data)
	} else {
		s, report, err = bytecode.DecodeWithReport(data)
	}
	if err != nil {
		return nil, err
	}
	for _, pos := range report.Anomalies {
		fmt.Fprintf(os.Stderr, "warning: operand %d has an unknown tag, read as NoType\n", pos)
	}
	return s, nil
}

// loadConfig reads the named file, or searches upward from the working
// directory when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.FindAndLoad(wd)
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		cfgPath = fs.String("config", "", "Path to "+config.FileName+" (default: search upward)")
		core    = fs.String("core", "", "Write a core dump here when the program faults")
		compact = fs.Bool("compact", false, "Program uses the compact one-byte payload encoding")
		input   = fs.String("input", "", "File whose contents are fed to READ")
	)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	vm.SetLogger(logger)

	prog, err := readProgram(fs.Arg(0), *compact)
	if err != nil {
		return err
	}

	opts := append(cfg.EngineOptions(), vm.WithOutput(os.Stdout))
	if *input != "" {
		data, err := os.ReadFile(*input)
		if err != nil {
			return errors.Load("read input", err)
		}
		opts = append(opts, vm.WithInput(data))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := vm.New(opts...)
	start := time.Now()
	runErr := e.Execute(ctx, prog)
	logger.Info("run finished",
		zap.String("state", e.State().String()),
		zap.Uint64("steps", e.Steps()),
		zap.Duration("elapsed", time.Since(start)))

	if runErr == nil {
		return nil
	}
	if *core != "" {
		if err := writeCore(*core, e); err != nil {
			fmt.Fprintf(os.Stderr, "core dump: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "core dumped to %s\n", *core)
		}
	}
	return runErr
}

func writeCore(path string, e *vm.Engine) error {
	data, err := vm.MarshalSnapshot(e.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func debugCmd(args []string) error {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	var (
		cfgPath = fs.String("config", "", "Path to "+config.FileName+" (default: search upward)")
		compact = fs.Bool("compact", false, "Program uses the compact one-byte payload encoding")
	)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	prog, err := readProgram(fs.Arg(0), *compact)
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runInteractive(fs.Arg(0), prog, cfg)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	vm.SetLogger(logger)

	opts := append(cfg.EngineOptions(), vm.WithTrace(true), vm.WithOutput(os.Stdout))
	return vm.New(opts...).Execute(context.Background(), prog)
}

func viewCmd(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	var (
		text    = fs.Bool("text", false, "Print the hex text form")
		core    = fs.String("core", "", "Print a core dump instead of a program")
		compact = fs.Bool("compact", false, "Program uses the compact one-byte payload encoding")
	)
	_ = fs.Parse(args)

	if *core != "" {
		return viewCore(*core)
	}
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	prog, err := readProgram(fs.Arg(0), *compact)
	if err != nil {
		return err
	}
	if *text {
		fmt.Println(bytecode.FormatText(prog))
		return nil
	}

	fmt.Printf("%s %s\n\n", titleStyle.Render("Program"), fs.Arg(0))
	for i, o := range prog {
		line := fmt.Sprintf("%5d  %-14s %s", i, o.Tag, bytecode.FormatOperand(o))
		if o.IsOp() {
			line += "  " + o.Opcode().String()
			fmt.Println(funcStyle.Render(line))
			continue
		}
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Println(helpStyle.Render(fmt.Sprintf("%d operands, %d functions", len(prog), len(bytecode.FunctionTable(prog)))))
	return nil
}

func viewCore(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Load("read core dump", err)
	}
	snap, err := vm.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n\n", titleStyle.Render("Core dump"), filepath.Base(path))
	fmt.Printf("state  %s\n", snap.State)
	fmt.Printf("ip     %d\n", snap.IP)
	fmt.Printf("acc    %d (%#x)\n", snap.Acc, snap.Acc)
	fmt.Printf("steps  %d\n", snap.Steps)
	if ferr := snap.Err(); ferr != nil {
		fmt.Println(errorStyle.Render("fault  " + ferr.Error()))
	}

	fmt.Println()
	fmt.Println(labelStyle.Render("registers"))
	for i, v := range snap.Registers {
		if v != 0 {
			fmt.Printf("  r%-3d %d (%#x)\n", i, v, v)
		}
	}
	fmt.Println(labelStyle.Render("stack"))
	fmt.Printf("  % x\n", snap.Stack)
	fmt.Println(labelStyle.Render("calls"))
	fmt.Printf("  %v\n", snap.Calls)
	fmt.Println(labelStyle.Render("extents"))
	for _, ext := range snap.Extents {
		fmt.Printf("  [%#04x, %#04x) %d bytes\n", ext.Start, ext.End, ext.Size())
	}
	if len(snap.Out) > 0 {
		fmt.Println(labelStyle.Render("unflushed output"))
		fmt.Printf("  %q\n", snap.Out)
	}

	prog, err := snap.Stream()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(labelStyle.Render("program"))
	for _, l := range asm.Lines(prog) {
		marker := "  "
		if l.Pos == snap.IP {
			marker = "> "
		}
		fmt.Printf("%s%5d  %s\n", marker, l.Pos, l.Text)
	}
	return nil
}

func asmCmd(args []string) error {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	compact := fs.Bool("compact", false, "Program uses the compact one-byte payload encoding")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	prog, err := readProgram(fs.Arg(0), *compact)
	if err != nil {
		return err
	}
	fmt.Print(asm.Disassemble(prog))
	return nil
}

func compileCmd(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("o", "out.cb", "Output path")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return errors.Load("read source", err)
	}
	prog, err := asm.Assemble(string(src))
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Position > 0 {
			return fmt.Errorf("%s:%d: %w", fs.Arg(0), e.Position, err)
		}
		return err
	}
	if err := os.WriteFile(*out, bytecode.Encode(prog), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Printf("wrote %s (%d operands)\n", *out, len(prog))
	return nil
}

// Command sheetctl is the headless-spreadsheet CLI: an interactive cell
// console, a live websocket server, a ZeroMQ change-notification
// bridge, and .xlsx import/export, each dispatched the way
// sheetcore/main.go's subcommand switch dispatches karl's own
// commands — a hand-rolled switch on os.Args[1], not a flag-parsing
// framework.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sheetcore/engine"
	"sheetcore/notify"
	"sheetcore/transport"
	"sheetcore/xlsxio"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "-h", "--help", "help":
		usage()
	case "repl":
		os.Exit(runREPL(os.Stdin, os.Stdout))
	case "serve":
		os.Exit(serveCommand(os.Args[2:]))
	case "notify":
		os.Exit(notifyCommand(os.Args[2:]))
	case "export-xlsx":
		os.Exit(exportXLSXCommand(os.Args[2:]))
	case "import-xlsx":
		os.Exit(importXLSXCommand(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  sheetctl <command> [arguments]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  repl                        interactive cell console\n")
	fmt.Fprintf(os.Stderr, "  serve [addr]                websocket live server (default :8080)\n")
	fmt.Fprintf(os.Stderr, "  notify [addr]               ZeroMQ PUB change-notification bridge (default tcp://127.0.0.1:5556)\n")
	fmt.Fprintf(os.Stderr, "  export-xlsx <in> <out.xlsx> load a workbook snapshot and export it\n")
	fmt.Fprintf(os.Stderr, "  import-xlsx <in.xlsx>       load an .xlsx file and print how many cells it set\n")
}

func serveCommand(args []string) int {
	addr := ":8080"
	if len(args) > 0 {
		addr = args[0]
	}
	eng := engine.New()
	srv := transport.NewServer(eng)
	http.HandleFunc("/ws", srv.HandleWebSocket)
	fmt.Fprintf(os.Stderr, "serving on %s\n", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Fprintln(os.Stderr, "serve error:", err)
		return 1
	}
	return 0
}

func notifyCommand(args []string) int {
	addr := "tcp://127.0.0.1:5556"
	if len(args) > 0 {
		addr = args[0]
	}
	eng := engine.New()
	pub, err := notify.NewPublisher(eng, addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "notify error:", err)
		return 1
	}
	defer pub.Close()

	fmt.Fprintf(os.Stderr, "publishing mutation events on %s\n", addr)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return 0
}

func exportXLSXCommand(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: sheetctl export-xlsx <workbook.json> <out.xlsx>")
		return 2
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var w engine.WireWorkbook
	if err := json.Unmarshal(data, &w); err != nil {
		fmt.Fprintln(os.Stderr, "decode workbook:", err)
		return 1
	}
	eng := engine.New()
	if err := eng.Deserialize(w); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := xlsxio.Export(eng, args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func importXLSXCommand(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sheetctl import-xlsx <in.xlsx>")
		return 2
	}
	eng := engine.New()
	affected, err := xlsxio.Import(eng, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("imported %d cells\n", len(affected))
	return 0
}

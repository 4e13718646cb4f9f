package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/0xRadioAc7iv/minibitcask/client"
	"github.com/0xRadioAc7iv/minibitcask/internal"
	"github.com/0xRadioAc7iv/minibitcask/internal/protocol"
	"github.com/0xRadioAc7iv/minibitcask/internal/utils"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("ping"),
	readline.PcItem("get"),
	readline.PcItem("set"),
	readline.PcItem("delete"),
	readline.PcItem("exists"),
	readline.PcItem("count"),
	readline.PcItem("list"),
	readline.PcItem("scan"),
	readline.PcItem("rscan"),
	readline.PcItem("prefix"),
	readline.PcItem("merge"),
	readline.PcItem("size"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "Bitcask server host")
	port := flag.Int("port", internal.DEFAULT_PORT, "Bitcask server port")
	flag.Parse()

	c, err := client.Connect(client.WithHost(*host), client.WithPort(*port))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error connecting:", err)
		os.Exit(1)
	}
	defer c.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s:%d> ", *host, *port),
		HistoryFile:     filepath.Join(os.TempDir(), ".bitcask_history"),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("Connected to %v:%d\n", *host, *port)
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "input error:", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return
		}

		cmd, key, value, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		resp, err := c.Execute(cmd, []byte(key), []byte(value))
		if err != nil {
			fmt.Fprintln(os.Stderr, "connection error:", err)
			os.Exit(1)
		}

		printResponse(rl.Stdout(), cmd, resp)
	}
}

func printResponse(w io.Writer, cmd string, resp *protocol.Response) {
	switch resp.Status {
	case protocol.StatusNil:
		fmt.Fprintln(w, "(nil)")
		return
	case protocol.StatusError:
		fmt.Fprintf(w, "(error) %s\n", resp.Payload)
		return
	}

	switch cmd {
	case protocol.CmdList, protocol.CmdScan, protocol.CmdRScan, protocol.CmdPrefix:
	default:
		fmt.Fprintln(w, string(resp.Payload))
		return
	}

	rows, err := protocol.DecodeRows(resp.Payload)
	if err != nil {
		fmt.Fprintf(w, "(error) %v\n", err)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}

	for i, row := range rows {
		switch {
		case cmd == protocol.CmdList:
			fmt.Fprintf(w, "%d) %q\n", i+1, row.Key)
		case row.Failed:
			fmt.Fprintf(w, "%d) %q => (error) %s\n", i+1, row.Key, row.Value)
		default:
			fmt.Fprintf(w, "%d) %q => %q\n", i+1, row.Key, row.Value)
		}
	}
}

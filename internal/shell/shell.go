// Package shell implements tftpctl's interactive command loop: the
// out-of-core collaborator spec.md §1 calls "the interactive shell's
// command dispatch loop". It issues successive get/put commands against
// the same server. The host is resolved once at startup for the banner
// only; each transfer is given the host name as typed and resolves it
// again when it opens its session.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Merith-TK/tftpctl/internal/tftp"
)

const helpText = `
Commands:
    get source_file [destination_file] - get a source_file from server and save it as destination_file
    put source_file [destination_file] - send a source_file to server and store it as destination_file
    dir                                 - obtain a listing of remote files (not supported by this client)
    quit | exit | bye                   - exit TFTP client
`

// Run starts the interactive prompt against server:port and blocks until
// the user quits or in reaches EOF. Errors from a single transfer are
// printed and do not terminate the loop (spec.md §7).
func Run(server string, port int, opts tftp.Options, logger tftp.Logger, in io.Reader, out io.Writer) error {
	clearScreen(out)

	resolved := server
	if ips, err := net.LookupHost(server); err == nil && len(ips) > 0 {
		resolved = ips[0]
	}
	fmt.Fprintf(out, "Exchanging files with server '%s' (%s)\n", server, resolved)
	fmt.Fprintf(out, "Server port is %d\n\n", port)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "tftpctl> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		if err := dispatch(cmd, args, server, port, opts, logger, out); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintf(out, "Error: %s\n", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func dispatch(cmd string, args []string, server string, port int, opts tftp.Options, logger tftp.Logger, out io.Writer) error {
	switch cmd {
	case "help":
		fmt.Fprint(out, helpText)
		return nil

	case "get":
		if len(args) == 0 {
			fmt.Fprintln(out, "Usage: get source_file [destination_file]")
			return nil
		}
		src := args[0]
		dst := src
		if len(args) > 1 {
			dst = args[1]
		}
		return tftp.Get(context.Background(), server, port, src, dst, opts, logger)

	case "put":
		if len(args) == 0 {
			fmt.Fprintln(out, "Usage: put source_file [destination_file]")
			return nil
		}
		src := args[0]
		dst := src
		if len(args) > 1 {
			dst = args[1]
		}
		return tftp.Put(context.Background(), server, port, src, dst, opts, logger)

	case "dir":
		fmt.Fprintln(out, "dir is not supported by this client")
		return nil

	case "quit", "exit", "bye":
		fmt.Fprintln(out, "Exiting TFTP client.")
		fmt.Fprintln(out, "Goodbye!")
		return errQuit

	default:
		fmt.Fprintf(out, "Unknown command: '%s'. Try 'help'?\n", cmd)
		return nil
	}
}

func clearScreen(out io.Writer) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "cls")
	default:
		cmd = exec.Command("clear")
	}
	cmd.Stdout = out
	cmd.Run()
}

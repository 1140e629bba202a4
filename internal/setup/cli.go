package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI provides command-line interface for setup operations.
type CLI struct {
	configPath string
	reader     *bufio.Reader
	out        io.Writer
}

// NewCLI creates a CLI bound to the default client config path.
func NewCLI() (*CLI, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return newCLI(configPath, os.Stdin, os.Stdout), nil
}

func newCLI(configPath string, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		configPath: configPath,
		reader:     bufio.NewReader(in),
		out:        out,
	}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "register":
		return c.register(args[1:])
	case "status":
		return c.showStatus()
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", args[0])
		return c.showHelp()
	}
}

func (c *CLI) showHelp() error {
	fmt.Fprint(c.out, `
Symptom Checker MCP Server Setup

Usage:
  mcp-server-lite setup <command> [options]

Commands:
  register   Register the server with Claude Desktop
             --binary, -b <path>   server binary (default: auto-detect)
             --log-level <level>   log level for the server process
             --yes, -y             skip confirmation
  status     Show registration status
`)
	return nil
}

// register adds the server to the client config after confirmation.
func (c *CLI) register(args []string) error {
	var opts Options
	autoConfirm := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--binary", "-b":
			if i+1 < len(args) {
				opts.BinaryPath = args[i+1]
				i++
			}
		case "--log-level":
			if i+1 < len(args) {
				opts.LogLevel = args[i+1]
				i++
			}
		case "--yes", "-y":
			autoConfirm = true
		}
	}

	if opts.BinaryPath == "" {
		path, err := findBinary()
		if err != nil {
			return fmt.Errorf("could not find server binary: %w", err)
		}
		opts.BinaryPath = path
	}

	fmt.Fprintf(c.out, "Config file: %s\n", c.configPath)
	fmt.Fprintf(c.out, "Server binary: %s\n", opts.BinaryPath)

	if !autoConfirm {
		fmt.Fprint(c.out, "Proceed with configuration? [Y/n]: ")
		response, _ := c.reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Configuration cancelled.")
			return nil
		}
	}

	if err := Register(c.configPath, opts); err != nil {
		return fmt.Errorf("failed to register server: %w", err)
	}

	fmt.Fprintln(c.out, "Registered. Restart Claude Desktop to load the symptom checker tools.")
	return nil
}

func (c *CLI) showStatus() error {
	status, err := GetStatus(c.configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Config path: %s\n", status.ConfigPath)
	if status.Registered {
		fmt.Fprintf(c.out, "Registered: yes (%s)\n", status.BinaryPath)
	} else {
		fmt.Fprintln(c.out, "Registered: no")
	}
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/wordvault/internal"
	"github.com/starford/wordvault/internal/apperr"
	"github.com/starford/wordvault/internal/mcpserver"
	"github.com/starford/wordvault/internal/models"
	"github.com/starford/wordvault/internal/vault"
)

type componentAction func(ctx context.Context, cmd *cli.Command, c *internal.Components) error

// withComponents loads the config, wires the components for one command
// and closes them afterwards. CLI logs go to stderr so stdout stays clean
// for command output and the MCP transport.
func withComponents(fn componentAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
		c, err := internal.Bootstrap(internal.WithConfig(cfg), internal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn("close components", slog.String("error", err.Error()))
			}
		}()
		return fn(ctx, cmd, c)
	}
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Hand a selected word to the next entry form",
		ArgsUsage: "<selection>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "url", Usage: "Page the selection came from"},
		},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			win, ok, err := c.Capture(ctx, strings.Join(cmd.Args().Slice(), " "), cmd.String("url"))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("nothing selected")
				return nil
			}
			return printJSON(win)
		}),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Save a word card",
		ArgsUsage: "<word>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "meaning", Usage: "Definition (looked up when omitted)"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Your own understanding"},
			&cli.StringFlag{Name: "context", Usage: "Where you saw the word"},
			&cli.StringFlag{Name: "source", Usage: "Source page URL"},
			&cli.BoolFlag{Name: "no-define", Usage: "Skip the dictionary lookup"},
		},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			word := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if word == "" {
				return fmt.Errorf("%w: word is required", apperr.ErrValidation)
			}
			card := models.WordCard{
				Word:      word,
				Meaning:   cmd.String("meaning"),
				Mnemonic:  cmd.String("note"),
				Context:   cmd.String("context"),
				SourceURL: cmd.String("source"),
				DateAdded: models.Timestamp(time.Now()),
			}
			if card.Meaning == "" && !cmd.Bool("no-define") {
				res, err := c.Service.Define(ctx, word)
				if err != nil {
					c.Logger.Warn("definition lookup failed", slog.String("word", word), slog.String("error", err.Error()))
				}
				card.Meaning = res.Definition
			}
			out, err := c.Service.Save(ctx, card)
			if err != nil {
				return err
			}
			fmt.Printf("saved %q (%s)\n", word, out)
			return nil
		}),
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved words, newest first",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Print cards as JSON"},
		},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			cards, err := c.Service.List(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(cards)
			}
			fmt.Printf("Total words: %d\n", len(cards))
			for _, card := range cards {
				if card.Meaning == "" {
					fmt.Println(card.Word)
					continue
				}
				fmt.Printf("%s: %s\n", card.Word, card.Meaning)
			}
			return nil
		}),
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search across saved cards",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Max results"},
		},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			results, err := c.Service.Search(ctx, strings.Join(cmd.Args().Slice(), " "), int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s\t%s\n", r.Card.Word, r.Snippet)
			}
			return nil
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the vault as Markdown or XLSX",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "md", Usage: "md or xlsx"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file or directory (default: dated file in the current directory, - for stdout)"},
		},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			var (
				exp vault.Export
				err error
			)
			switch cmd.String("format") {
			case "md", "markdown":
				exp, err = c.Service.ExportMarkdown(ctx)
			case "xlsx", "excel":
				exp, err = c.Service.ExportXLSX(ctx)
			default:
				return fmt.Errorf("%w: unknown format %q", apperr.ErrValidation, cmd.String("format"))
			}
			if errors.Is(err, apperr.ErrEmptyVault) {
				fmt.Println("No words to export")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.String("out")
			if out == "-" {
				_, err := os.Stdout.Write(exp.Data)
				return err
			}
			if out == "" {
				out = exp.Filename
			} else if info, statErr := os.Stat(out); statErr == nil && info.IsDir() {
				out = filepath.Join(out, exp.Filename)
			}
			if err := os.WriteFile(out, exp.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Println(out)
			return nil
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Append cards from a Markdown export",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{configFlag()},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("%w: file is required", apperr.ErrValidation)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			n, err := c.Service.Import(ctx, data)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d cards\n", n)
			return nil
		}),
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every saved word",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
		},
		Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
			confirm := askYesNo
			if cmd.Bool("yes") {
				confirm = func(string) bool { return true }
			}
			cleared, err := c.Service.Clear(ctx, confirm)
			if err != nil {
				return err
			}
			if cleared {
				fmt.Println("vault cleared")
			}
			return nil
		}),
	}
}

func remoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Manage the Google Apps Script delivery endpoint",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the configured endpoint",
				Flags: []cli.Flag{configFlag()},
				Action: withComponents(func(ctx context.Context, _ *cli.Command, c *internal.Components) error {
					url, err := c.Service.RemoteEndpoint(ctx)
					if err != nil {
						return err
					}
					if url == "" {
						fmt.Println("remote delivery disabled")
						return nil
					}
					fmt.Println(url)
					return nil
				}),
			},
			{
				Name:      "set",
				Usage:     "Send new cards to this endpoint",
				ArgsUsage: "<url>",
				Flags:     []cli.Flag{configFlag()},
				Action: withComponents(func(ctx context.Context, cmd *cli.Command, c *internal.Components) error {
					url := cmd.Args().First()
					if strings.TrimSpace(url) == "" {
						return fmt.Errorf("%w: url is required", apperr.ErrValidation)
					}
					return c.Service.SetRemoteEndpoint(ctx, url)
				}),
			},
			{
				Name:  "clear",
				Usage: "Disable remote delivery",
				Flags: []cli.Flag{configFlag()},
				Action: withComponents(func(ctx context.Context, _ *cli.Command, c *internal.Components) error {
					return c.Service.SetRemoteEndpoint(ctx, "")
				}),
			},
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve Word Vault tools over MCP stdio",
		Flags: []cli.Flag{configFlag()},
		Action: withComponents(func(_ context.Context, _ *cli.Command, c *internal.Components) error {
			return mcpserver.New(c.Service).ServeStdio()
		}),
	}
}

func askYesNo(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

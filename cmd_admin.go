package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/himanshub16/nowplaying/queue"
)

type SongsParams struct {
	Config string `short:"c" help:"Path to a TOML config file." optional:"true"`
}

func SongsCmd() *cobra.Command {
	return boa.CmdT[SongsParams]{
		Use:         "songs",
		Short:       "Print the song queue",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *SongsParams, cmd *cobra.Command, args []string) {
			if err := runSongs(cmd, params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "songs: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runSongs(cmd *cobra.Command, params *SongsParams) error {
	cfg, err := LoadConfig(params.Config)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	songs, err := store.Songs(cmd.Context())
	if err != nil {
		return err
	}
	renderSongs(cmd.OutOrStdout(), songs)
	return nil
}

func renderSongs(w io.Writer, songs []queue.Song) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "ID", "Title", "Artist", "Status", "Created"})
	for i, s := range songs {
		t.AppendRow(table.Row{i + 1, s.ID, s.Title, s.Artist, s.Status, s.CreatedAt})
	}
	t.AppendFooter(table.Row{"", "", "", "", "playing", queue.CountPlaying(songs)})
	t.SetStyle(table.StyleLight)
	t.Render()
}

type TokenParams struct {
	Config   string `short:"c" help:"Path to a TOML config file." optional:"true"`
	Username string `short:"u" help:"Admin username."`
	Password string `short:"p" help:"Admin password."`
}

func TokenCmd() *cobra.Command {
	return boa.CmdT[TokenParams]{
		Use:         "token",
		Short:       "Issue an admin token without going through the HTTP login",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *TokenParams, cmd *cobra.Command, args []string) {
			cfg, err := LoadConfig(params.Config)
			if err == nil {
				err = runToken(cmd.OutOrStdout(), cfg, params.Username, params.Password)
			}
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "token: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runToken(w io.Writer, cfg Config, username, password string) error {
	gate, err := NewGate(cfg.Auth)
	if err != nil {
		return err
	}
	token, _, err := gate.Issue(username, password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

type HashPasswordParams struct {
	Password string `pos:"true" help:"Password to hash."`
}

func HashPasswordCmd() *cobra.Command {
	return boa.CmdT[HashPasswordParams]{
		Use:         "hash-password",
		Short:       "Print a bcrypt hash to use as admin_password_hash",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *HashPasswordParams, cmd *cobra.Command, args []string) {
			if params.Password == "" {
				_, _ = fmt.Fprintln(os.Stderr, "hash-password: empty password")
				os.Exit(1)
			}
			hash, err := hashPassword(params.Password)
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
				os.Exit(1)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
		},
	}.ToCobra()
}

type ImportParams struct {
	Config string `short:"c" help:"Path to a TOML config file." optional:"true"`
	File   string `pos:"true" help:"Markdown queue document to import."`
}

func ImportCmd() *cobra.Command {
	return boa.CmdT[ImportParams]{
		Use:         "import",
		Short:       "Replace the song queue with the songs of a markdown document",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ImportParams, cmd *cobra.Command, args []string) {
			if err := runImportFile(cmd, params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "import: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runImportFile(cmd *cobra.Command, params *ImportParams) error {
	cfg, err := LoadConfig(params.Config)
	if err != nil {
		return err
	}
	f, err := os.Open(params.File)
	if err != nil {
		return err
	}
	defer f.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := importSongs(cmd.Context(), store, f, newLogger("import", cfg))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d songs\n", n)
	return err
}

// importSongs replaces the queue with the valid records of the document and
// returns how many were kept.
func importSongs(ctx context.Context, store *queue.Store, r io.Reader, logger *log.Logger) (int, error) {
	records, err := queue.ParseMarkdown(r)
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}

	songs := make([]queue.Song, 0, len(records))
	for _, rec := range records {
		song, ok := rec.Song()
		if !ok {
			logger.Warnf("skipping record at line %d: %s", rec.Line, rec.Reason())
			continue
		}
		songs = append(songs, song)
	}

	if err := store.Replace(ctx, songs); err != nil {
		return 0, err
	}
	return len(songs), nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		provider, imagePath, text, into string
		create                          bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Read a profile from a screenshot or pasted text",
		Long: "Read a profile from a screenshot (--image) or text (--text, use - for stdin).\n" +
			"With --into the result is merged into an existing connection; with --create a new one is saved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (imagePath == "") == (text == "") {
				return errors.New("specify exactly one of --image or --text")
			}
			if into != "" && create {
				return errors.New("--into and --create cannot be combined")
			}
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			p, err := domain.ParseProvider(provider)
			if err != nil {
				return err
			}

			var src service.ImportSource
			switch {
			case imagePath != "":
				if src.Image, err = readImage(imagePath); err != nil {
					return err
				}
			case text == "-":
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				src.Text = string(data)
			default:
				src.Text = text
			}

			prof, err := app.Import.Extract(ctx, u.ID, p, src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatExtracted(prof))

			var saved *domain.Connection
			switch {
			case into != "":
				target, err := resolveConnection(ctx, app, u.ID, into)
				if err != nil {
					return err
				}
				if saved, err = app.Import.Apply(ctx, u.ID, target.ID, prof); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s に反映しました\n", formatter.Bold(saved.Nickname))
			case create:
				if saved, err = app.Import.CreateFrom(ctx, u.ID, prof); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s を追加しました %s\n", formatter.Bold(saved.Nickname), formatter.TruncID(saved.ID))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", string(domain.ProviderClaude), "AI provider: claude|gpt|gemini")
	cmd.Flags().StringVar(&imagePath, "image", "", "Screenshot file (jpeg, png, webp)")
	cmd.Flags().StringVar(&text, "text", "", "Profile text, or - to read stdin")
	cmd.Flags().StringVar(&into, "into", "", "Merge into this connection")
	cmd.Flags().BoolVar(&create, "create", false, "Save as a new connection")

	return cmd
}

// readImage loads a screenshot and infers its MIME type from the extension,
// falling back to content sniffing.
func readImage(path string) (*llm.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading screenshot: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	} else {
		mimeType = http.DetectContentType(data)
	}
	return &llm.Image{Data: data, MimeType: mimeType}, nil
}

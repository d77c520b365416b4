package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xxxsen/awbdesk/internal/apiclient"
	"github.com/xxxsen/awbdesk/internal/export"
	"github.com/xxxsen/awbdesk/internal/ingest"
	"github.com/xxxsen/awbdesk/internal/model"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
	"github.com/xxxsen/awbdesk/internal/session"
	"github.com/xxxsen/awbdesk/internal/vault"
)

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "upload documents for analysis and write a session snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			files := make([]apiclient.UploadFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if int64(len(data)) > cfg.API.MaxUploadBytes() {
					return fmt.Errorf("%s exceeds max upload size of %d MB", path, cfg.API.MaxUploadMB)
				}
				files = append(files, apiclient.UploadFile{Name: path, Data: data})
			}
			ingestor := ingest.New(newAPIClient(cfg), ingest.WithTimeout(cfg.API.Timeout()))

			printed := 0
			results, err := ingestor.Ingest(cmd.Context(), files, func(thinking string) {
				if len(thinking) > printed {
					fmt.Fprint(cmd.ErrOrStderr(), thinking[printed:])
					printed = len(thinking)
				}
			})
			if printed > 0 {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			docs := vault.New(results).Documents()
			if err := session.SaveFile(out, docs); err != nil {
				return err
			}
			printSummary(cmd, docs)
			fmt.Fprintf(cmd.OutOrStdout(), "session written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "session.awb", "session snapshot to write")
	return cmd
}

func printSummary(cmd *cobra.Command, docs []model.EditableDocument) {
	for i, doc := range docs {
		state := "plain"
		if doc.IsEncrypted {
			state = "encrypted"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s (%s, confidence %.2f, %d fields, %s)\n",
			i, doc.FileName, doc.DetectedType, doc.Confidence, len(doc.Fields), state)
		for j, f := range doc.Fields {
			fmt.Fprintf(cmd.OutOrStdout(), "    [%d] %s: %s\n", j, f.Label, truncate(jsonvalue.Text(f.Value), 80))
		}
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// openSession loads a snapshot into a vault and returns a function that
// writes the vault back.
func openSession(path string, opts ...vault.Option) (*vault.Vault, func() error, error) {
	docs, err := session.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	v := vault.FromDocuments(docs, opts...)
	return v, func() error {
		return session.SaveFile(path, v.Documents())
	}, nil
}

func newEditCmd(configPath *string) *cobra.Command {
	var (
		sessionPath string
		doc         int
		field       int
		value       string
		asJSON      bool
		remove      bool
		title       string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "edit a field value, delete a field or rename a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOptionalConfig(*configPath)
			if err != nil {
				return err
			}
			v, commit, err := openSession(sessionPath, vaultOptions(cfg, nil)...)
			if err != nil {
				return err
			}
			switch {
			case cmd.Flags().Changed("title"):
				err = v.RenameDocument(doc, title)
			case remove:
				err = v.DeleteField(doc, field)
			case cmd.Flags().Changed("value"):
				var parsed any = value
				if asJSON {
					if parsed, err = jsonvalue.DecodeString(value); err != nil {
						return fmt.Errorf("--value is not valid JSON: %w", err)
					}
				}
				err = v.SetFieldValue(doc, field, parsed)
			default:
				return fmt.Errorf("one of --value, --delete or --title is required")
			}
			if err != nil {
				return err
			}
			d, err := v.Document(doc)
			if err != nil {
				return err
			}
			if d.IsEncrypted && !cmd.Flags().Changed("title") {
				fmt.Fprintln(cmd.ErrOrStderr(), "document is encrypted, fields were left unchanged")
			}
			return commit()
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "session.awb", "session snapshot")
	cmd.Flags().IntVar(&doc, "doc", 0, "document index")
	cmd.Flags().IntVar(&field, "field", 0, "field index")
	cmd.Flags().StringVar(&value, "value", "", "new field value")
	cmd.Flags().BoolVar(&asJSON, "json", false, "parse --value as JSON")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the field")
	cmd.Flags().StringVar(&title, "title", "", "new document name")
	return cmd
}

func newCryptCmd(configPath *string, encrypt bool) *cobra.Command {
	var (
		sessionPath string
		doc         int
		all         bool
		pass        string
	)
	use, short := "decrypt", "decrypt field values"
	if encrypt {
		use, short = "encrypt", "encrypt field values"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOptionalConfig(*configPath)
			if err != nil {
				return err
			}
			if pass == "" {
				pass = os.Getenv("AWBDESK_PASSWORD")
			}
			v, commit, err := openSession(sessionPath, vaultOptions(cfg, nil)...)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case all:
				err = v.GlobalToggle(ctx, pass, encrypt)
			case encrypt:
				err = v.EncryptDocument(ctx, doc, pass)
			default:
				err = v.DecryptDocument(ctx, doc, pass)
			}
			if err != nil {
				return err
			}
			if err := commit(); err != nil {
				return err
			}
			printSummary(cmd, v.Documents())
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "session.awb", "session snapshot")
	cmd.Flags().IntVar(&doc, "doc", 0, "document index")
	cmd.Flags().BoolVar(&all, "all", false, "apply to every document")
	cmd.Flags().StringVar(&pass, "password", "", "password (defaults to $AWBDESK_PASSWORD)")
	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var (
		sessionPath string
		format      string
		dir         string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "export the session documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadOptionalConfig(*configPath); err != nil {
				return err
			}
			docs, err := session.LoadFile(sessionPath)
			if err != nil {
				return err
			}
			formats := export.Formats
			if format != "all" {
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				formats = []export.Format{f}
			}
			artifacts, err := export.RenderAll(cmd.Context(), docs, formats, time.Now())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for _, a := range artifacts {
				path := filepath.Join(dir, a.FileName)
				if err := os.WriteFile(path, a.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "session.awb", "session snapshot")
	cmd.Flags().StringVar(&format, "format", "json", "json, txt, doc, xlsx or all")
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	return cmd
}

func newSaveCmd(configPath *string) *cobra.Command {
	var sessionPath string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "send the session documents to the save endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			v, _, err := openSession(sessionPath, vaultOptions(cfg, newAPIClient(cfg))...)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.API.Timeout())
			defer cancel()
			res := v.Save(ctx)
			if !res.OK {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d documents\n", v.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "session.awb", "session snapshot")
	return cmd
}

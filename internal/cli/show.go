package cli

import (
	"github.com/spf13/cobra"

	"stackrank/internal/config"
	"stackrank/internal/format"
	"stackrank/internal/ledger"
	"stackrank/internal/model"
)

type showTask struct {
	Rank     int        `json:"rank"`
	Title    string     `json:"title"`
	Category string     `json:"category,omitempty"`
	Notes    string     `json:"notes,omitempty"`
	Effort   string     `json:"effort,omitempty"`
	Joy      string     `json:"joy,omitempty"`
	Link     string     `json:"link,omitempty"`
	Subtasks []showTask `json:"subtasks,omitempty"`
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, err := cfg.EnsureLedgerPath(); err != nil {
				return err
			}

			led := ledger.Ledger{Path: cfg.LedgerPath}
			roots, children, err := led.ReadFullState()
			if err != nil {
				return err
			}

			out := make([]showTask, 0, len(roots))
			for i, r := range roots {
				task := showTaskFor(r, i+1)
				for j, c := range children[r.Title] {
					task.Subtasks = append(task.Subtasks, showTaskFor(c, j+1))
				}
				out = append(out, task)
			}
			return format.Write(cmd.OutOrStdout(), out, app.Format, app.PrettyJSON)
		},
	}
}

func showTaskFor(it *model.Item, pos int) showTask {
	return showTask{
		Rank:     pos,
		Title:    it.Title,
		Category: it.Category,
		Notes:    it.Notes,
		Effort:   it.Effort,
		Joy:      it.Joy,
		Link:     it.Link,
	}
}

// Package cli holds the interactive terminal views.
package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/version"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)
)

type repoItem struct {
	repo model.Repository
}

func (i repoItem) Title() string {
	marker := ""
	if i.repo.Private {
		marker = "🔒 "
	}

	if version.IsUpdateAvailable(i.repo.RemoteVersion, i.repo.InstalledVersion) {
		marker += "⬆ "
	}

	return fmt.Sprintf("%s%s", marker, i.repo.FullName())
}

func (i repoItem) Description() string {
	desc := fmt.Sprintf("branch %s", i.repo.Branch)

	if !i.repo.HasSentinelVersion() {
		desc = fmt.Sprintf("%s | installed %s", desc, i.repo.InstalledVersion)
	}

	if i.repo.RemoteVersion != "" && i.repo.RemoteVersion != model.VersionSentinel {
		desc = fmt.Sprintf("%s | remote %s", desc, i.repo.RemoteVersion)
	}

	if !i.repo.UpdatedAt.IsZero() {
		desc = fmt.Sprintf("%s | checked %s", desc, i.repo.UpdatedAt.Format("2006-01-02 15:04"))
	}

	return desc
}

func (i repoItem) FilterValue() string {
	return i.repo.FullName()
}

type RepoListModel struct {
	list         list.Model
	selectedRepo *model.Repository
	quitting     bool
}

func (m RepoListModel) Init() tea.Cmd {
	return nil
}

func (m RepoListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true

			return m, tea.Quit

		case "enter":
			i, ok := m.list.SelectedItem().(repoItem)
			if ok {
				m.selectedRepo = &i.repo
			}

			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m RepoListModel) View() string {
	if m.quitting {
		return ""
	}

	return docStyle.Render(m.list.View())
}

func (m RepoListModel) GetSelectedRepo() *model.Repository {
	return m.selectedRepo
}

// NewRepoList builds the tracked-repository picker.
func NewRepoList(repos []model.Repository) RepoListModel {
	items := make([]list.Item, len(repos))
	for i, repo := range repos {
		items[i] = repoItem{repo: repo}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Tracked Plugins"

	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)

	return RepoListModel{list: l}
}

package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskboard/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tasks by title and description",
	Long: `Search tasks with tiered matching:
- Exact match (highest priority)
- Prefix match
- Suffix match
- Fuzzy match (contains, lowest priority)

Search is case insensitive and looks at the title, description, status and
priority. Without --project every project is searched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		projectID := ""
		if projectRef(cmd) != "" {
			project, err := requireProject(cmd)
			if err != nil {
				return err
			}
			projectID = project.ID
		}
		tasks, err := client.ListTasks(cmd.Context(), projectID)
		if err != nil {
			return err
		}

		results := searchTasks(tasks, query)
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(results) > limit {
			results = results[:limit]
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return renderSearchJSON(results, query)
		}
		renderSearchTable(results, query)
		return nil
	},
}

// match tiers, best first
const (
	matchNone = iota
	matchFuzzy
	matchSuffix
	matchPrefix
	matchExact
)

func matchTier(field, query string) int {
	field = strings.ToLower(field)
	switch {
	case field == "":
		return matchNone
	case field == query:
		return matchExact
	case strings.HasPrefix(field, query):
		return matchPrefix
	case strings.HasSuffix(field, query):
		return matchSuffix
	case strings.Contains(field, query):
		return matchFuzzy
	}
	return matchNone
}

// searchTasks returns the tasks matching query, best tier first. Ties keep
// the input order.
func searchTasks(tasks []models.Task, query string) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	type hit struct {
		task models.Task
		tier int
	}
	var hits []hit
	for _, task := range tasks {
		best := matchNone
		for _, field := range []string{task.Title, task.DescriptionText(), string(task.Status), string(task.Priority)} {
			if tier := matchTier(field, query); tier > best {
				best = tier
			}
		}
		if best != matchNone {
			hits = append(hits, hit{task: task, tier: best})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].tier > hits[j].tier })

	out := make([]models.Task, len(hits))
	for i, h := range hits {
		out[i] = h.task
	}
	return out
}

func renderSearchJSON(tasks []models.Task, query string) error {
	type searchResult struct {
		Query string        `json:"query"`
		Count int           `json:"count"`
		Tasks []models.Task `json:"tasks"`
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	out, err := json.MarshalIndent(searchResult{Query: query, Count: len(tasks), Tasks: tasks}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal search results: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func renderSearchTable(tasks []models.Task, query string) {
	fmt.Printf("Search results for '%s' (%d found):\n", query, len(tasks))
	if len(tasks) == 0 {
		fmt.Println("No tasks found matching your search.")
		return
	}
	fmt.Println()
	printTaskHeader()
	now := time.Now()
	for _, task := range tasks {
		printTaskRow(task, now)
	}
}

func init() {
	searchCmd.Flags().IntP("limit", "l", 0, "Limit number of results")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

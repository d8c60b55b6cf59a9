package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"drafter/internal/config"
	"drafter/internal/outline"
	"drafter/internal/pipeline"
	"drafter/internal/planner"
	"drafter/internal/router"
	"drafter/internal/scheduler"
	"drafter/internal/storage"
	"drafter/internal/version"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "drafter",
		Short: "AI-assisted document drafting core",
	}
	dbPath     string
	configPath string

	docTitle    string
	docSections string
	docChars    int
	instruction string

	commitMessage string
	commitAuthor  string
	commitKind    string

	logBranch string
	logLimit  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the document database (SQLite); overrides config")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the config file")

	for _, cmd := range []*cobra.Command{generateCmd, planCmd} {
		cmd.Flags().StringVar(&docTitle, "title", "未命名文档", "Document title")
		cmd.Flags().StringVar(&docSections, "sections", "引言,方法,结论", "Comma-separated section titles")
		cmd.Flags().IntVar(&docChars, "chars", 0, "Total target length in characters; 0 uses the configured default")
		cmd.Flags().StringVar(&instruction, "instruction", "", "Free-form writing instruction")
	}

	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message")
	commitCmd.Flags().StringVar(&commitAuthor, "author", "user", "Commit author")
	commitCmd.Flags().StringVar(&commitKind, "kind", "", "Version kind: major or minor")

	logCmd.Flags().StringVar(&logBranch, "branch", "", "Branch to walk; defaults to the current branch")
	logCmd.Flags().IntVar(&logLimit, "limit", 20, "Maximum number of entries")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(listCmd)
}

func loadSetup() (*config.Config, *storage.SQLiteStore, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	path := cfg.Document.StoragePath
	if dbPath != "" {
		path = dbPath
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, store, nil
}

// loadSession fetches a session or starts a new one for an unseen document.
func loadSession(ctx context.Context, store *storage.SQLiteStore, docID string) (*version.Session, error) {
	sess, err := store.LoadSession(ctx, docID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = version.NewSession(docID)
	}
	return sess, nil
}

func splitSections(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(data))
}

var generateCmd = &cobra.Command{
	Use:   "generate [doc-id]",
	Short: "Run one generation cycle and auto-commit the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		proposer, err := outline.NewProposer(ctx, outline.ProposerOptions{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
		})
		if err != nil {
			log.Fatalf("Failed to create proposer: %v", err)
		}

		sess, err := loadSession(ctx, store, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}

		totalChars := docChars
		if totalChars <= 0 {
			totalChars = cfg.Document.TotalChars
		}

		r := router.New(router.Policy{
			ComplexityThreshold: cfg.Routing.ComplexityThreshold,
			LatencyTargetMS:     cfg.Routing.LatencyTargetMS,
			QualityTarget:       cfg.Routing.QualityTarget,
		})
		cycle := pipeline.NewCycle(r, proposer, pipeline.StaticWriter, cfg.Routing.Models)
		cycle.Author = cfg.Document.Author

		fmt.Printf("✍️  Generating %q (%d sections, %d chars)...\n", docTitle, len(splitSections(docSections)), totalChars)
		report, err := cycle.Run(ctx, sess, docTitle, instruction, splitSections(docSections), totalChars)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}

		if err := store.SaveSession(ctx, sess); err != nil {
			log.Fatalf("Failed to save document: %v", err)
		}

		failed := 0
		for _, sec := range report.Sections {
			if sec.Err != nil {
				failed++
				fmt.Printf("⚠️  Section %q failed: %v\n", sec.Title, sec.Err)
			}
		}
		fmt.Printf("✅ Done in %v. version=%s workers=%d writer=%s failed=%d\n",
			report.Elapsed.Round(time.Millisecond), report.VersionID, report.Decision.WorkerCount, report.Roles.Writer, failed)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the normalized per-section writing plan",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		store.Close()

		totalChars := docChars
		if totalChars <= 0 {
			totalChars = cfg.Document.TotalChars
		}
		sections := planner.SanitizeSections(splitSections(docSections), nil)

		proposer, err := outline.NewProposer(ctx, outline.ProposerOptions{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
		})
		if err != nil {
			log.Fatalf("Failed to create proposer: %v", err)
		}

		var proposal *planner.Proposal
		raw, err := proposer.ProposePlan(ctx, docTitle, instruction, sections, totalChars)
		if err != nil {
			fmt.Printf("⚠️  Proposal failed, using default plan: %v\n", err)
		} else if proposal, err = planner.ParseProposal(raw); err != nil {
			fmt.Printf("⚠️  Proposal unusable, using default plan: %v\n", err)
			proposal = nil
		}

		plan := planner.Normalize(proposal, sections, nil, totalChars, nil)
		ordered := make([]planner.Section, 0, len(sections))
		for _, sec := range sections {
			ordered = append(ordered, plan[sec])
		}
		printJSON(ordered)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Sample host resources and print the concurrency decision",
	Run: func(cmd *cobra.Command, args []string) {
		snap := scheduler.Capture(context.Background())
		decision := scheduler.Schedule(snap)
		fmt.Printf("cpu=%.1f%% gpu=%v model_load=%.2f\n", snap.CPUPercent, snap.GPUAvailable, snap.ModelServiceLoad)
		fmt.Printf("workers=%d prefer_gpu=%v backpressure=%v\n", decision.WorkerCount, decision.PreferGPU, decision.QueueBackpressure)
	},
}

var routeCmd = &cobra.Command{
	Use:   "route [task description]",
	Short: "Show the model choice and fallback chain for a task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		task := strings.Join(args, " ")

		r := router.New(router.Policy{
			ComplexityThreshold: cfg.Routing.ComplexityThreshold,
			LatencyTargetMS:     cfg.Routing.LatencyTargetMS,
			QualityTarget:       cfg.Routing.QualityTarget,
		})
		model := r.ChooseModel(task, len([]rune(task)), cfg.Routing.Models)
		roles := r.AssignRoles(cfg.Routing.Models)

		fmt.Printf("model=%s\n", model)
		fmt.Printf("planner=%s writer=%s reviewer=%s\n", roles.Planner, roles.Writer, roles.Reviewer)
		fmt.Printf("fallback=%s\n", strings.Join(r.FallbackChain(model, cfg.Routing.Models), " -> "))
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit [doc-id]",
	Short: "Record an explicit version of the current document state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := loadSession(ctx, store, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		versionID, err := version.Commit(sess, commitMessage, commitAuthor, nil, commitKind)
		if err != nil {
			log.Fatalf("Commit failed: %v", err)
		}
		if err := store.SaveSession(ctx, sess); err != nil {
			log.Fatalf("Failed to save document: %v", err)
		}
		fmt.Printf("✅ Committed %s on branch %s\n", versionID, version.CurrentBranch(sess))
	},
}

var logCmd = &cobra.Command{
	Use:   "log [doc-id]",
	Short: "Show version history for a branch, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := store.LoadSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		if sess == nil {
			log.Fatalf("Unknown document: %s", args[0])
		}

		branch := logBranch
		if branch == "" {
			branch = version.CurrentBranch(sess)
		}
		for _, entry := range version.Log(sess, branch, logLimit) {
			marker := " "
			if entry.IsCurrent {
				marker = "*"
			}
			fmt.Printf("%s %s  %-6s %-10s +%d -%d ~%d  %s\n",
				marker, entry.VersionID, entry.Kind, entry.Author,
				entry.Summary.Insert, entry.Summary.Delete, entry.Summary.Replace, entry.Message)
		}
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree [doc-id]",
	Short: "Print the full version graph as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := store.LoadSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		if sess == nil {
			log.Fatalf("Unknown document: %s", args[0])
		}
		nodes, edges := version.Tree(sess)
		printJSON(map[string]any{
			"nodes":    nodes,
			"edges":    edges,
			"branches": sess.Branches,
			"current":  sess.CurrentVersionID,
		})
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout [doc-id] [version-id]",
	Short: "Restore the working document to a committed version",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := store.LoadSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		if sess == nil {
			log.Fatalf("Unknown document: %s", args[0])
		}
		if err := version.Checkout(sess, args[1]); err != nil {
			log.Fatalf("Checkout failed: %v", err)
		}
		if err := store.SaveSession(ctx, sess); err != nil {
			log.Fatalf("Failed to save document: %v", err)
		}
		fmt.Printf("✅ Checked out %s\n", args[1])
	},
}

var branchCmd = &cobra.Command{
	Use:   "branch [doc-id] [name] [base-version-id]",
	Short: "Create a branch rooted at a version (default: current)",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := store.LoadSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		if sess == nil {
			log.Fatalf("Unknown document: %s", args[0])
		}
		base := ""
		if len(args) == 3 {
			base = args[2]
		}
		if err := version.CreateBranch(sess, args[1], base); err != nil {
			log.Fatalf("Branch failed: %v", err)
		}
		if err := store.SaveSession(ctx, sess); err != nil {
			log.Fatalf("Failed to save document: %v", err)
		}
		fmt.Printf("✅ Created branch %s\n", args[1])
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag [doc-id] [version-id] [tag]",
	Short: "Add a tag to a committed version",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := store.LoadSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		if sess == nil {
			log.Fatalf("Unknown document: %s", args[0])
		}
		if err := version.Tag(sess, args[1], args[2]); err != nil {
			log.Fatalf("Tag failed: %v", err)
		}
		if err := store.SaveSession(ctx, sess); err != nil {
			log.Fatalf("Failed to save document: %v", err)
		}
		fmt.Printf("✅ Tagged %s with %s\n", args[1], args[2])
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff [doc-id] [from-version] [to-version]",
	Short: "Show a line diff between two committed versions",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		sess, err := store.LoadSession(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load document: %v", err)
		}
		if sess == nil {
			log.Fatalf("Unknown document: %s", args[0])
		}
		lines, err := version.DiffText(sess, args[1], args[2])
		if err != nil {
			log.Fatalf("Diff failed: %v", err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		_, store, err := loadSetup()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		ids, err := store.ListDocuments(ctx)
		if err != nil {
			log.Fatalf("Failed to list documents: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"postcraft/internal/config"
	"postcraft/internal/genai"
	"postcraft/internal/limits"
	"postcraft/internal/metrics"
	"postcraft/internal/model"
	"postcraft/internal/pipeline"
	"postcraft/internal/publisher"
	"postcraft/internal/research"
	"postcraft/internal/schedule"
	"postcraft/internal/store/sqlitestore"
	"postcraft/internal/theme"
	"postcraft/internal/util"
	"postcraft/internal/wizard"
	"postcraft/internal/worker"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "generate":
		cmdGenerate()
	case "quickpost":
		cmdQuickPost()
	case "trending":
		cmdTrending()
	case "posts":
		cmdPosts()
	case "edit":
		cmdEdit()
	case "scheduled":
		cmdScheduled()
	case "calendar":
		cmdCalendar()
	case "cancel":
		cmdCancel()
	case "worker":
		cmdWorker()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: postcraft <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./postcraft.yaml")
	fmt.Println("  generate    Run the content wizard: topic, research, suggestions")
	fmt.Println("  quickpost   Save a post and publish now or schedule it")
	fmt.Println("  trending    Suggest trending topics to post about")
	fmt.Println("  posts       List saved posts and status counts")
	fmt.Println("  edit        Rewrite a saved post's content")
	fmt.Println("  scheduled   Show upcoming posts grouped by time bucket")
	fmt.Println("  calendar    Show calendar events for a date range")
	fmt.Println("  cancel      Cancel a scheduled entry")
	fmt.Println("  worker      Run the deferred-publish loop")
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./postcraft.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	topic := fs.String("topic", "", "what to post about")
	extra := fs.String("context", "", "additional context for the model")
	platformsArg := fs.String("platforms", "twitter", "comma-separated platforms: twitter,linkedin")
	withResearch := fs.Bool("research", false, "fetch AI research before generating")
	customResearch := fs.String("custom-research", "", "your own research notes, merged with fetched research")
	mock := fs.Bool("mock", false, "use the offline generator")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()

	platforms, err := parsePlatforms(*platformsArg)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	var svc research.Service
	if *withResearch && cfg.Credentials.PerplexityKey != "" {
		client, err := research.NewPerplexityClient(cfg.Credentials.PerplexityKey, cfg.Research.Model)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		svc = client
	} else if *withResearch {
		fmt.Println("warning: missing PERPLEXITY_API_KEY; proceeding without research")
		*withResearch = false
	}
	agg := research.NewAggregator(svc)
	if *customResearch != "" {
		agg.SetCustomText(*topic, *customResearch)
	}

	gen := buildGenerator(cfg, *mock)
	w := wizard.New(agg, gen)
	w.UpdateDraft(model.DraftRequest{
		Topic:             *topic,
		AdditionalContext: *extra,
		Platforms:         platforms,
		IncludeResearch:   *withResearch,
		Provider:          model.AIProvider(cfg.Generation.Provider),
	})

	if err := w.Next(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if err := w.FetchResearch(ctx); err != nil {
		// Recoverable: generation proceeds without fetched research.
		fmt.Println("research unavailable:", err)
		fmt.Println("proceeding without research")
	}
	if err := w.Next(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	theme.PrintBanner()
	for _, item := range w.Board().Snapshot() {
		limit := limits.LimitFor(item.Platform)
		fmt.Printf("\n== %s (limit %d) ==\n", item.Platform, limit)
		for i, s := range item.Suggestions {
			note := s.VariationNote
			if note == "" {
				note = "primary"
			}
			fmt.Printf("[%d] (%s, %d/%d chars)\n%s\n", i, note, s.CharacterCount, limit, s.Content)
			if len(s.Hashtags) > 0 {
				fmt.Println("hashtags:", strings.Join(s.Hashtags, " "))
			}
		}
	}
	fmt.Println("\nUse 'postcraft quickpost' to save, schedule, or publish a suggestion.")
}

func cmdQuickPost() {
	fs := flag.NewFlagSet("quickpost", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	platformArg := fs.String("platform", "twitter", "target platform")
	topic := fs.String("topic", "Quick Post", "topic label stored with the post")
	text := fs.String("text", "", "post content")
	at := fs.String("at", "", "RFC3339 time to schedule; empty saves a draft")
	publish := fs.Bool("publish", false, "publish immediately instead of scheduling")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	platform := model.Platform(*platformArg)

	db := mustOpenDB(cfg)
	defer db.Close()

	pipe := pipeline.New(db, db, publisher.FromConfig(cfg))
	key := pipeline.PairKey{Platform: platform}
	in := pipeline.Input{Topic: *topic, Content: *text, Platform: platform}

	switch {
	case *publish:
		res, err := pipe.PublishNow(ctx, key, in)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		fmt.Println("published:", res.URL)
	case *at != "":
		when, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Println("error: invalid -at time, want RFC3339:", err)
			os.Exit(1)
		}
		entry, err := pipe.Schedule(ctx, key, in, when)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		fmt.Printf("scheduled %s for %s (entry %s)\n", platform, entry.ScheduledTime.Local().Format(time.RFC1123), entry.ID)
	default:
		post, err := pipe.Save(ctx, key, in)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		fmt.Println("saved draft:", post.ID)
	}
}

func cmdTrending() {
	fs := flag.NewFlagSet("trending", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	category := fs.String("category", "", "optional category to focus on")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	client, err := research.NewPerplexityClient(cfg.Credentials.PerplexityKey, cfg.Research.Model)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	topics, err := client.TrendingTopics(context.Background(), *category)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	for _, t := range topics {
		fmt.Println("-", t)
	}
}

func cmdPosts() {
	fs := flag.NewFlagSet("posts", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	limit := fs.Int("limit", 20, "max posts to list")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	db := mustOpenDB(cfg)
	defer db.Close()

	counts, err := db.Counts(ctx)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Printf("draft=%d scheduled=%d published=%d failed=%d\n",
		counts[model.PostDraft], counts[model.PostScheduled], counts[model.PostPublished], counts[model.PostFailed])

	posts, err := db.ListPosts(ctx, *limit)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	for _, p := range posts {
		fmt.Printf("%s  %-9s %-8s  %s\n", p.ID, p.Platform, p.Status, oneLine(p.Content, 60))
	}
}

func cmdEdit() {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	id := fs.String("id", "", "post id")
	text := fs.String("text", "", "replacement content")
	_ = fs.Parse(os.Args[2:])
	if *id == "" || *text == "" {
		fmt.Println("error: -id and -text are required")
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	db := mustOpenDB(cfg)
	defer db.Close()

	post, err := db.GetPost(ctx, *id)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if !limits.IsValid(*text, post.Platform) {
		fmt.Printf("error: content exceeds the %d character limit for %s\n", limits.LimitFor(post.Platform), post.Platform)
		os.Exit(1)
	}
	if err := db.UpdatePostContent(ctx, *id, *text); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Printf("updated %s (%d/%d chars)\n", *id, limits.Count(*text), limits.LimitFor(post.Platform))
}

func cmdScheduled() {
	fs := flag.NewFlagSet("scheduled", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	limit := fs.Int("limit", 100, "max entries")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	db := mustOpenDB(cfg)
	defer db.Close()

	view := schedule.NewView(db)
	grouped, err := view.Grouped(ctx, *limit)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	for _, bucket := range schedule.BucketOrder {
		entries := grouped[bucket]
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", bucket)
		for _, e := range entries {
			fmt.Printf("  %s  %-9s %s  %s\n", e.ID, e.Post.Platform,
				e.ScheduledTime.Local().Format("Mon Jan 2 15:04"), oneLine(e.Post.Content, 50))
		}
	}
}

func cmdCalendar() {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	from := fs.String("from", "", "range start, YYYY-MM-DD (default today)")
	days := fs.Int("days", 30, "range length in days")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	db := mustOpenDB(cfg)
	defer db.Close()

	start := time.Now()
	if *from != "" {
		t, err := time.ParseInLocation("2006-01-02", *from, time.Local)
		if err != nil {
			fmt.Println("error: invalid -from date, want YYYY-MM-DD:", err)
			os.Exit(1)
		}
		start = t
	}
	view := schedule.NewView(db)
	events, err := view.Calendar(ctx, start, start.AddDate(0, 0, *days))
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	for _, ev := range events {
		fmt.Printf("%s  %-9s %-9s %s\n  %s\n", ev.Start.Local().Format("Mon Jan 2 15:04"),
			ev.Platform, ev.Status, ev.Title, ev.ContentPreview)
	}
	if len(events) == 0 {
		fmt.Println("no scheduled posts in range")
	}
}

func cmdCancel() {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	id := fs.String("id", "", "schedule entry id")
	_ = fs.Parse(os.Args[2:])
	if *id == "" {
		fmt.Println("error: -id is required")
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath)
	db := mustOpenDB(cfg)
	defer db.Close()

	view := schedule.NewView(db)
	if err := view.Cancel(context.Background(), *id); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	fmt.Println("canceled:", *id)
}

func cmdWorker() {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	cfgPath := fs.String("config", "./postcraft.yaml", "config path")
	once := fs.Bool("once", false, "run a single pass and exit")
	_ = fs.Parse(os.Args[2:])

	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	db := mustOpenDB(cfg)
	defer db.Close()

	metrics.StartServer(cfg.Metrics.Addr)

	pubs := make(map[model.Platform]worker.Publisher)
	for platform, p := range publisher.FromConfig(cfg) {
		pubs[platform] = p
	}
	w := worker.New(db, pubs)
	if *once {
		n, err := w.RunOnce(ctx)
		if err != nil {
			fmt.Println("error:", err)
			os.Exit(1)
		}
		fmt.Printf("settled %d entries\n", n)
		return
	}
	interval := time.Duration(cfg.Worker.IntervalSeconds) * time.Second
	fmt.Printf("worker running, polling every %s\n", interval)
	if err := w.RunLoop(ctx, interval); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	return cfg
}

func mustOpenDB(cfg config.Config) *sqlitestore.DB {
	db, err := sqlitestore.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	return db
}

func buildGenerator(cfg config.Config, mock bool) genai.Generator {
	if mock || cfg.Credentials.OpenAIKey == "" {
		if !mock {
			fmt.Println("warning: missing OPENAI_API_KEY; using the offline generator")
		}
		return genai.MockGenerator{Variations: cfg.Generation.SuggestionsPerPlatform}
	}
	gen, err := genai.NewOpenAIGenerator(model.AIProvider(cfg.Generation.Provider),
		cfg.Credentials.OpenAIKey, cfg.Generation.Model, cfg.Generation.SuggestionsPerPlatform)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	return gen
}

func parsePlatforms(arg string) ([]model.Platform, error) {
	var out []model.Platform
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p := model.Platform(part)
		if !p.Valid() {
			return nil, fmt.Errorf("unknown platform %q", part)
		}
		out = append(out, p)
	}
	return out, nil
}

func oneLine(s string, n int) string {
	return util.Truncate(strings.ReplaceAll(s, "\n", " "), n)
}

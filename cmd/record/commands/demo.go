package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/marshallshelly/pebble-record/cmd/record/output"
	"github.com/marshallshelly/pebble-record/internal/models"
	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/model"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var (
	demoSetup    bool
	demoRollback bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the create, read, update and query walkthrough",
	Long: `Creates a user with two posts, reads them back through finders and
relations, renames the user, lists every user and finally eager loads the
posts of all users with an example.com address.

With --setup the users and posts tables are created first. With --rollback
the whole walkthrough runs in a transaction that is rolled back at the end.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().BoolVar(&demoSetup, "setup", false, "Create the users and posts tables first")
	demoCmd.Flags().BoolVar(&demoRollback, "rollback", false, "Roll back every change when done")
}

// errDemoRollback unwinds the demo transaction without reporting a failure.
var errDemoRollback = errors.New("demo rolled back")

// demoReport is everything the walkthrough created and read.
type demoReport struct {
	User          *model.Entity         `json:"user"`
	RawTimestamps map[string]any        `json:"raw_timestamps"`
	Posts         []*model.Entity       `json:"posts"`
	Found         *model.Entity         `json:"found"`
	FoundPosts    []*model.Entity       `json:"found_posts"`
	FirstPost     *model.Entity         `json:"first_post"`
	Author        *model.Entity         `json:"author"`
	Renamed       string                `json:"renamed"`
	AllUsers      []*model.Entity       `json:"all_users"`
	ExampleUsers  []userPosts           `json:"example_users"`
	RolledBack    bool                  `json:"rolled_back"`
	Stats         runtime.StatsSnapshot `json:"stats"`
}

type userPosts struct {
	User  *model.Entity   `json:"user"`
	Posts []*model.Entity `json:"posts"`
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if demoSetup {
		if err := models.CreateTables(ctx, db); err != nil {
			return err
		}
		if !structured() {
			output.Success("Tables users and posts are ready")
		}
	}

	report, err := demo(ctx, db, demoRollback)
	if err != nil {
		return err
	}

	if structured() {
		return emit(cmd.OutOrStdout(), report)
	}
	printDemo(report)
	return nil
}

// demo runs the walkthrough, inside a rolled back transaction when rollback
// is set.
func demo(ctx context.Context, db *runtime.DB, rollback bool) (*demoReport, error) {
	if !rollback {
		report, err := walkthrough(ctx, db)
		if err != nil {
			return nil, err
		}
		report.Stats = db.Stats()
		return report, nil
	}

	var report *demoReport
	err := builder.Transaction(ctx, db, func(ctx context.Context) error {
		r, err := walkthrough(ctx, db)
		if err != nil {
			return err
		}
		report = r
		return errDemoRollback
	})
	if err != errDemoRollback { //nolint:errorlint // a joined rollback failure must surface
		return nil, err
	}
	report.RolledBack = true
	report.Stats = db.Stats()
	return report, nil
}

func walkthrough(ctx context.Context, db *runtime.DB) (*demoReport, error) {
	report := &demoReport{}

	// 1. Create a user
	hash, err := bcrypt.GenerateFromPassword([]byte("sifre123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.User.New(db, map[string]any{
		"name":     "Ahmet Yılmaz",
		"email":    "ahmet@example.com",
		"password": string(hash),
	})
	if err := mustSave(ctx, user); err != nil {
		return nil, err
	}
	// Snapshot before the rename in step 5.
	report.User = models.User.Hydrate(db, user.Attributes())

	raw, err := builder.Table(db, models.User.Table()).
		Select("created_at", "updated_at").
		WhereEq(models.User.KeyName(), user.Key()).
		Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamps: %w", err)
	}
	if len(raw) > 0 {
		report.RawTimestamps = raw[0].Map()
	}

	// 2. Create two posts for the user
	for _, attrs := range []map[string]any{
		{"title": "İlk Gönderi", "content": "Bu benim ilk gönderim. Merhaba dünya!"},
		{"title": "İkinci Gönderi", "content": "Bu da ikinci gönderim. ORM harika çalışıyor!"},
	} {
		attrs["user_id"] = user.Key()
		post := models.Post.New(db, attrs)
		if err := mustSave(ctx, post); err != nil {
			return nil, err
		}
		report.Posts = append(report.Posts, post)
	}

	// 3. Find the user and query their posts
	found, err := models.User.Find(ctx, db, user.Key())
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("user %v not found after insert", user.Key())
	}
	report.Found = found

	posts, err := models.Post.Query(db).Where("user_id", "=", found.Key()).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	report.FoundPosts = model.Entities(posts)

	// 4. Find the first post and its author
	first, err := models.Post.Find(ctx, db, report.Posts[0].Key())
	if err != nil {
		return nil, err
	}
	report.FirstPost = first
	if first != nil {
		if report.Author, err = first.One(ctx, "user"); err != nil {
			return nil, err
		}
	}

	// 5. Rename the user
	user.Set("name", "Ahmet Yılmaz (Güncellendi)")
	if err := mustSave(ctx, user); err != nil {
		return nil, err
	}
	report.Renamed = user.StringValue("name")

	// 6. List every user
	if report.AllUsers, err = models.User.All(ctx, db); err != nil {
		return nil, err
	}

	// 7. Users with an example.com address and their posts
	matches, err := models.User.Query(db).
		Where("email", "LIKE", "%@example.com").
		With("posts").
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	for _, u := range model.Entities(matches) {
		ps, err := u.Many(ctx, "posts")
		if err != nil {
			return nil, err
		}
		report.ExampleUsers = append(report.ExampleUsers, userPosts{User: u, Posts: ps})
	}

	return report, nil
}

func mustSave(ctx context.Context, e *model.Entity) error {
	ok, err := e.Save(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s was not saved", e.Type().Name())
	}
	return nil
}

func printDemo(r *demoReport) {
	output.Section("1. Create a user")
	output.Success("Created %s (ID: %v)", r.User.StringValue("name"), r.User.Key())
	output.Muted("created_at: %s", r.User.StringValue("created_at"))
	output.Muted("updated_at: %s", r.User.StringValue("updated_at"))
	for _, col := range []string{"created_at", "updated_at"} {
		output.Muted("stored %s: %v", col, r.RawTimestamps[col])
	}

	output.Section("2. Create posts")
	for _, p := range r.Posts {
		output.Success("Created %s (ID: %v)", p.StringValue("title"), p.Key())
	}

	output.Section("3. User details")
	output.Info("Name: %s", r.Found.StringValue("name"))
	output.Info("Email: %s", r.Found.StringValue("email"))
	output.Info("Posts (%d):", len(r.FoundPosts))
	for _, p := range r.FoundPosts {
		output.Muted("  - %s (ID: %v): %s", p.StringValue("title"), p.Key(), truncate(p.StringValue("content"), 50))
	}

	output.Section("4. Post details")
	if r.FirstPost != nil {
		output.Info("Title: %s", r.FirstPost.StringValue("title"))
		output.Info("Content: %s", r.FirstPost.StringValue("content"))
	}
	if r.Author != nil {
		output.Info("Author: %s (ID: %v)", r.Author.StringValue("name"), r.Author.Key())
	}

	output.Section("5. Update the user")
	output.Success("Renamed to %s", r.Renamed)

	output.Section("6. All users")
	for i, u := range r.AllUsers {
		output.Info("%d. %s (%s)", i+1, u.StringValue("name"), u.StringValue("email"))
	}

	output.Section("7. example.com users and their posts")
	for _, up := range r.ExampleUsers {
		output.Info("%s (%s): %d posts", up.User.StringValue("name"), up.User.StringValue("email"), len(up.Posts))
		for _, p := range up.Posts {
			output.Muted("  * %s", p.StringValue("title"))
		}
	}

	output.Section("Done")
	if r.RolledBack {
		output.Warning("All changes were rolled back")
	}
	output.Muted("%d queries, %d statements, %d slow, %d errors in %s",
		r.Stats.Queries, r.Stats.Execs, r.Stats.Slow, r.Stats.Errors, r.Stats.Duration)
}

// truncate shortens s to n runes followed by an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

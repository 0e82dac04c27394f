package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"spark-client/pkg/models/post"
	"spark-client/pkg/screens"

	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List posts from the feed",
	RunE:  withRuntime(runFeed),
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search posts",
	Args:  cobra.ExactArgs(1),
	RunE:  withRuntime(runSearch),
}

var showCmd = &cobra.Command{
	Use:   "show <postID>",
	Short: "Show a post with its comments",
	Args:  cobra.ExactArgs(1),
	RunE:  withRuntime(runShow),
}

var likeCmd = &cobra.Command{
	Use:   "like <postID>",
	Short: "Toggle your like on a post",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, args []string) error {
		return runToggle(cmd, rt, args[0], "like")
	}),
}

var saveCmd = &cobra.Command{
	Use:   "save <postID>",
	Short: "Toggle whether a post is saved",
	Args:  cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, args []string) error {
		return runToggle(cmd, rt, args[0], "save")
	}),
}

var commentCmd = &cobra.Command{
	Use:   "comment <postID> <text>",
	Short: "Comment on a post",
	Args:  cobra.ExactArgs(2),
	RunE:  withRuntime(runComment),
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved posts",
	RunE:  withRuntime(runSaved),
}

var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Publish a post",
	Long: `Publish a post under a topic. Without --topic the first topic is used.
Use --topics to list the topics and exit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withRuntime(runPost),
}

func feedQuery(cmd *cobra.Command) post.Query {
	var q post.Query
	q.Search, _ = cmd.Flags().GetString("search")
	q.TopicID, _ = cmd.Flags().GetString("topic")
	q.UserID, _ = cmd.Flags().GetString("user")
	return q
}

// loadFeed refreshes f and loads up to pages pages in total.
func loadFeed(f *screens.Feed, pages int) error {
	if err := f.Refresh(); err != nil {
		return stateErr(f.State(), err)
	}
	for i := 1; i < pages; i++ {
		more, err := f.LoadMore()
		if err != nil {
			return stateErr(f.State(), err)
		}
		if !more {
			break
		}
	}
	return nil
}

func runFeed(cmd *cobra.Command, rt *runtime, _ []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")

	f := screens.NewFeed(cmd.Context(), rt.api, feedQuery(cmd), rt.cfg.PageSize, rt.log)
	defer f.Close()
	if err := loadFeed(f, pages); err != nil {
		return err
	}
	printPosts(cmd.OutOrStdout(), f.State().Data)
	return nil
}

func runSearch(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	s := screens.NewSearch(cmd.Context(), rt.api, rt.log)
	defer s.Close()

	s.OnQueryChanged(args[0])
	s.Wait()

	st := s.State()
	if st.Status == screens.Error {
		return fmt.Errorf("search failed: %s", st.Message())
	}
	printPosts(cmd.OutOrStdout(), st.Data)
	return nil
}

func runShow(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	d := screens.NewPostDetails(cmd.Context(), rt.api, args[0], rt.log)
	defer d.Close()
	if err := d.Load(); err != nil {
		return stateErr(d.State(), err)
	}

	out := cmd.OutOrStdout()
	data := d.State().Data
	printPosts(out, []post.Post{data.Post})
	fmt.Fprintln(out)
	fmt.Fprintln(out, data.Post.Content)
	if len(data.Comments) > 0 {
		fmt.Fprintln(out)
		printComments(out, data.Comments, 0)
	}
	return nil
}

// runToggle flips like or save optimistically through the feed when the post
// is among the loaded pages, and through the post screen otherwise.
func runToggle(cmd *cobra.Command, rt *runtime, postID, field string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")

	f := screens.NewFeed(cmd.Context(), rt.api, post.Query{}, rt.cfg.PageSize, rt.log)
	defer f.Close()
	if err := loadFeed(f, pages); err != nil {
		return err
	}

	var found bool
	if field == "like" {
		found = f.ToggleLike(postID)
	} else {
		found = f.ToggleSave(postID)
	}
	if found {
		f.Settle()
		for _, p := range f.State().Data {
			if p.ID == postID {
				printPosts(cmd.OutOrStdout(), []post.Post{p})
			}
		}
		return nil
	}

	d := screens.NewPostDetails(cmd.Context(), rt.api, postID, rt.log)
	defer d.Close()
	if err := d.Load(); err != nil {
		return stateErr(d.State(), err)
	}
	var err error
	if field == "like" {
		err = d.ToggleLike()
	} else {
		err = d.ToggleSave()
	}
	if err != nil {
		return stateErr(d.State(), err)
	}
	printPosts(cmd.OutOrStdout(), []post.Post{d.State().Data.Post})
	return nil
}

func runComment(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	d := screens.NewPostDetails(cmd.Context(), rt.api, args[0], rt.log)
	defer d.Close()
	if err := d.Load(); err != nil {
		return stateErr(d.State(), err)
	}
	if err := d.Comment(args[1]); err != nil {
		return stateErr(d.State(), err)
	}
	printComments(cmd.OutOrStdout(), d.State().Data.Comments, 0)
	return nil
}

func runSaved(cmd *cobra.Command, rt *runtime, _ []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")

	s := screens.NewSavedPosts(cmd.Context(), rt.api, rt.session, rt.cfg.PageSize, rt.log)
	defer s.Close()
	if err := s.Refresh(); err != nil {
		return stateErr(s.State(), err)
	}
	for i := 1; i < pages; i++ {
		more, err := s.LoadMore()
		if err != nil {
			return stateErr(s.State(), err)
		}
		if !more {
			break
		}
	}
	printPosts(cmd.OutOrStdout(), s.State().Data)
	return nil
}

func runPost(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	cp := screens.NewCreatePost(cmd.Context(), rt.api, rt.log)
	defer cp.Close()
	if err := cp.LoadTopics(); err != nil {
		return stateErr(cp.State(), err)
	}

	out := cmd.OutOrStdout()
	if list, _ := cmd.Flags().GetBool("topics"); list {
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, t := range cp.State().Data.Topics {
			fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
		}
		return tw.Flush()
	}
	if len(args) == 0 {
		return fmt.Errorf("post content is required")
	}

	if topic, _ := cmd.Flags().GetString("topic"); topic != "" && !cp.SelectTopic(topic) {
		return fmt.Errorf("unknown topic %q, see 'spark post --topics'", topic)
	}
	var topicID string
	if sel := cp.State().Data.Selected; sel != nil {
		topicID = sel.ID
	}

	var image *screens.Upload
	if path, _ := cmd.Flags().GetString("image"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()
		image = &screens.Upload{Filename: filepath.Base(path), Body: f}
	}

	if err := cp.Create(args[0], topicID, image); err != nil {
		return stateErr(cp.State(), err)
	}
	fmt.Fprintf(out, "Posted %s\n", cp.State().Data.PostID)
	return nil
}

func init() {
	rootCmd.AddCommand(feedCmd, searchCmd, showCmd, likeCmd, saveCmd, commentCmd, savedCmd, postCmd)

	feedCmd.Flags().String("search", "", "only posts matching this text")
	feedCmd.Flags().String("topic", "", "only posts in this topic id")
	feedCmd.Flags().String("user", "", "only posts by this user id")
	for _, c := range []*cobra.Command{feedCmd, likeCmd, saveCmd, savedCmd} {
		c.Flags().Int("pages", 1, "number of pages to load")
	}

	postCmd.Flags().String("topic", "", "topic id (default is the first topic)")
	postCmd.Flags().String("image", "", "image file to attach")
	postCmd.Flags().Bool("topics", false, "list topics and exit")
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"spark-client/pkg/models/follow"
	"spark-client/pkg/models/user"
	"spark-client/pkg/screens"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile [userID]",
	Short: "Show your profile, or someone else's",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withRuntime(runProfile),
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change your profile",
	Long:  `Change profile fields. Only flags that are given are sent.`,
	RunE:  withRuntime(runProfileEdit),
}

var followCmd = &cobra.Command{
	Use:   "follow <userID>",
	Short: "Follow or unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE:  withRuntime(runFollow),
}

var followersCmd = &cobra.Command{
	Use:   "followers [userID]",
	Short: "List followers of a user (default is you)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, args []string) error {
		return runFollowList(cmd, rt, follow.Followers, args)
	}),
}

var followingsCmd = &cobra.Command{
	Use:   "followings [userID]",
	Short: "List who a user follows (default is you)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, args []string) error {
		return runFollowList(cmd, rt, follow.Followings, args)
	}),
}

func printUser(w io.Writer, u user.User) {
	fmt.Fprintf(w, "%s (@%s) id=%s\n", u.DisplayName(), u.Username, u.ID)
	if u.Bio != nil && *u.Bio != "" {
		fmt.Fprintln(w, *u.Bio)
	}
	if u.WebsiteURL != nil && *u.WebsiteURL != "" {
		fmt.Fprintln(w, *u.WebsiteURL)
	}
	fmt.Fprintf(w, "%d posts, %d followers\n", u.PostCount, u.FollowerCount)
}

func runProfile(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 || args[0] == rt.session.UserID() {
		p := screens.NewProfile(cmd.Context(), rt.api, rt.session, rt.log)
		defer p.Close()
		if err := p.Load(); err != nil {
			return stateErr(p.State(), err)
		}
		data := p.State().Data
		printUser(out, data.User)
		fmt.Fprintln(out, "\nPosts")
		printPosts(out, data.Posts)
		fmt.Fprintln(out, "\nSaved")
		printPosts(out, data.Saved)
		return nil
	}

	o := screens.NewOtherProfile(cmd.Context(), rt.api, args[0], rt.log)
	defer o.Close()
	if err := o.Load(); err != nil {
		return stateErr(o.State(), err)
	}
	data := o.State().Data
	printUser(out, data.User)
	fmt.Fprintf(out, "Following: %s\n", mark(data.Following, "yes"))
	fmt.Fprintln(out, "\nPosts")
	printPosts(out, data.Posts)
	return nil
}

func openUpload(path string) (*screens.Upload, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &screens.Upload{Filename: filepath.Base(path), Body: f}, func() { f.Close() }, nil
}

func runProfileEdit(cmd *cobra.Command, rt *runtime, _ []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	e := screens.NewEditProfile(cmd.Context(), rt.api, rt.session, rt.log)
	defer e.Close()
	if err := e.Load(); err != nil {
		return stateErr(e.State(), err)
	}

	form := e.Form()
	flags := cmd.Flags()
	if flags.Changed("first-name") {
		form.FirstName, _ = flags.GetString("first-name")
	}
	if flags.Changed("last-name") {
		form.LastName, _ = flags.GetString("last-name")
	}
	if flags.Changed("username") {
		form.Username, _ = flags.GetString("username")
	}
	if flags.Changed("bio") {
		form.Bio, _ = flags.GetString("bio")
	}
	if flags.Changed("website") {
		form.Website, _ = flags.GetString("website")
	}

	avatarPath, _ := flags.GetString("avatar")
	avatar, closeAvatar, err := openUpload(avatarPath)
	if err != nil {
		return err
	}
	defer closeAvatar()
	coverPath, _ := flags.GetString("cover")
	cover, closeCover, err := openUpload(coverPath)
	if err != nil {
		return err
	}
	defer closeCover()
	form.Avatar, form.Cover = avatar, cover

	if err := e.Save(form); err != nil {
		return stateErr(e.State(), err)
	}
	printUser(cmd.OutOrStdout(), e.State().Data.Current)
	return nil
}

func runFollow(cmd *cobra.Command, rt *runtime, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	o := screens.NewOtherProfile(cmd.Context(), rt.api, args[0], rt.log)
	defer o.Close()
	if err := o.Load(); err != nil {
		return stateErr(o.State(), err)
	}
	if err := o.ToggleFollow(); err != nil {
		return err
	}

	data := o.State().Data
	verb := "Unfollowed"
	if data.Following {
		verb = "Following"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s @%s\n", verb, data.User.Username)
	return nil
}

func runFollowList(cmd *cobra.Command, rt *runtime, dir follow.Direction, args []string) error {
	if err := rt.requireLogin(); err != nil {
		return err
	}
	userID := rt.session.UserID()
	if len(args) > 0 {
		userID = args[0]
	}
	pages, _ := cmd.Flags().GetInt("pages")

	f := screens.NewFollow(cmd.Context(), rt.api, dir, userID, rt.cfg.PageSize, rt.log)
	defer f.Close()
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

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tSINCE\tMUTUAL")
	for _, fi := range f.State().Data {
		fmt.Fprintf(tw, "%s\t@%s\t%s %s\t%s\t%s\n", fi.ID, fi.Username, fi.FirstName, fi.LastName,
			ago(fi.FollowedAt), mark(fi.HasFollowedBack, "yes"))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(profileCmd, followCmd, followersCmd, followingsCmd)
	profileCmd.AddCommand(profileEditCmd)

	profileEditCmd.Flags().String("first-name", "", "first name")
	profileEditCmd.Flags().String("last-name", "", "last name")
	profileEditCmd.Flags().String("username", "", "username")
	profileEditCmd.Flags().String("bio", "", "bio")
	profileEditCmd.Flags().String("website", "", "website URL")
	profileEditCmd.Flags().String("avatar", "", "new avatar image file")
	profileEditCmd.Flags().String("cover", "", "new cover image file")

	followersCmd.Flags().Int("pages", 1, "number of pages to load")
	followingsCmd.Flags().Int("pages", 1, "number of pages to load")
}

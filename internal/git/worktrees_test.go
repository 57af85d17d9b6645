package git

import (
	"reflect"
	"testing"
)

func TestParseWorktrees(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []Worktree
	}{
		{
			name: "empty output",
			out:  "",
			want: nil,
		},
		{
			name: "main worktree listed first",
			out: "worktree /repos/app\n" +
				"HEAD 1111111111111111111111111111111111111111\n" +
				"branch refs/heads/main\n" +
				"\n" +
				"worktree /repos/app-trees/feature-x\n" +
				"HEAD 2222222222222222222222222222222222222222\n" +
				"branch refs/heads/feature-x\n",
			want: []Worktree{
				{Path: "/repos/app", Commit: "1111111111111111111111111111111111111111", Branch: "main"},
				{Path: "/repos/app-trees/feature-x", Commit: "2222222222222222222222222222222222222222", Branch: "feature-x"},
			},
		},
		{
			name: "detached head",
			out: "worktree /repos/app\n" +
				"HEAD 3333333333333333333333333333333333333333\n" +
				"detached\n",
			want: []Worktree{
				{Path: "/repos/app", Commit: "3333333333333333333333333333333333333333", Detached: true},
			},
		},
		{
			name: "bare repository entry",
			out: "worktree /repos/app.git\n" +
				"bare\n",
			want: []Worktree{
				{Path: "/repos/app.git", Bare: true},
			},
		},
		{
			name: "locked with reason and prunable",
			out: "worktree /repos/app\n" +
				"HEAD 4444444444444444444444444444444444444444\n" +
				"branch refs/heads/main\n" +
				"\n" +
				"worktree /mnt/usb/wt\n" +
				"HEAD 5555555555555555555555555555555555555555\n" +
				"branch refs/heads/usb-work\n" +
				"locked usb drive unplugged\n" +
				"\n" +
				"worktree /repos/app-trees/stale\n" +
				"HEAD 6666666666666666666666666666666666666666\n" +
				"branch refs/heads/stale\n" +
				"prunable gitdir file points to non-existent location\n",
			want: []Worktree{
				{Path: "/repos/app", Commit: "4444444444444444444444444444444444444444", Branch: "main"},
				{Path: "/mnt/usb/wt", Commit: "5555555555555555555555555555555555555555", Branch: "usb-work", Locked: true},
				{Path: "/repos/app-trees/stale", Commit: "6666666666666666666666666666666666666666", Branch: "stale", Prunable: true},
			},
		},
		{
			name: "path with spaces",
			out: "worktree /repos/my project/tree one\n" +
				"HEAD 7777777777777777777777777777777777777777\n" +
				"branch refs/heads/one\n",
			want: []Worktree{
				{Path: "/repos/my project/tree one", Commit: "7777777777777777777777777777777777777777", Branch: "one"},
			},
		},
		{
			name: "missing trailing blank line",
			out: "worktree /a\nHEAD 88\nbranch refs/heads/x\n\nworktree /b\nHEAD 99\nbranch refs/heads/y",
			want: []Worktree{
				{Path: "/a", Commit: "88", Branch: "x"},
				{Path: "/b", Commit: "99", Branch: "y"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseWorktrees(tt.out)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseWorktrees() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

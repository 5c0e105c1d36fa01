// Package gitctx reads the staged diff and recent commit history from git.
//
// [Git] implements [Client] by shelling out to the git binary: the staged diff
// uses the minimal diff algorithm, and history is read with NUL-separated
// full commit messages. [Filter] removes excluded file sections and truncates
// the diff to a byte budget before it is placed in a prompt.
package gitctx

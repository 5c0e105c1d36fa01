// Commitgen writes a Conventional Commits message for the staged changes.
//
// It sends the staged diff, the chosen commit type and scope, and a few recent
// commit messages to the Anthropic messages API and prints the reply. Replies
// are cached per diff for an hour.
//
// Usage:
//
//	commitgen                       # pick a type from a menu
//	commitgen -t feat -s api        # direct mode
//	commitgen --configure           # store the API key
//	commitgen hook install -t fix   # fill in messages from a git hook
//	git commit -F <(commitgen -t chore)
package main

// Package watch rebuilds input filters whenever one of their spec files
// changes. It watches the directories holding the files, debounces rapid
// events, and reports which input filters were added, removed, or changed
// together with a unified diff of their descriptions.
package watch

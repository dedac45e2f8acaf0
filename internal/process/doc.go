// Package process terminates the headless browser started for diagram
// rendering, including the child processes it forks.
package process

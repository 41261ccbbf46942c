// Package install manages the FunGen checkout via git.
package install

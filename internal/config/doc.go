// Package config provides configuration structures and utilities for
// creditline. It defines the options of the annotate and serve commands, the
// .creditline YAML file and the XDG directories the tool stores data in.
package config

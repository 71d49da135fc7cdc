// Package builder turns a staging tree into a .deb by delegating to fpm.
package builder

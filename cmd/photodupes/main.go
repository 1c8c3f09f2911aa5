// Command photodupes ищет дубликаты и похожие фотографии.
package main

import "github.com/artemshloyda/photodupes/internal/cli"

func main() {
	cli.Execute()
}

// Command craters fetches, checks and inspects the lunar crater dataset, and
// can train the baseline mask model on it.
//
// Usage:
//
//	craters fetch --root ~/data/craters
//	craters verify --deep
//	craters show --index 12 --out /tmp/crater12
//	craters plot --field diameter
//	craters export --out catalog.parquet
//	craters serve --addr :8080
//	craters train --epochs 5 --limit 256
//
// Settings can also come from CRATERS_* environment variables or from
// $HOME/.craters/config.yaml.
package main

func main() {
	Execute()
}

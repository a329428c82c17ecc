package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"whitehill-server/internal/domain"
	"whitehill-server/internal/scenario"
	"whitehill-server/pkg/dungeon"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "gen", "surface":
		var seed int64
		if len(os.Args) >= 3 {
			s, err := strconv.ParseInt(os.Args[2], 10, 64)
			if err != nil {
				fmt.Printf("Invalid seed: %v\n", err)
				os.Exit(1)
			}
			seed = s
		}
		level := dungeon.Generate(dungeon.Options{Seed: seed})
		if os.Args[1] == "surface" {
			level = dungeon.GenerateSurface(dungeon.Options{Seed: seed})
		}
		out, err := yaml.Marshal(level.Scenario)
		if err != nil {
			fmt.Printf("Encode failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("# seed: %d, spawn: %d,%d\n", level.Seed, level.Spawn.X, level.Spawn.Y)
		os.Stdout.Write(out)
	case "check":
		if len(os.Args) < 3 {
			fmt.Println("Usage: scenarioutil check <file.yaml>")
			os.Exit(1)
		}
		if err := check(os.Args[2]); err != nil {
			fmt.Printf("FAIL: %v\n", err)
			os.Exit(1)
		}
	default:
		printHelp()
	}
}

// check загружает сценарий и расставляет его в пустом мире
func check(path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	w, h := max(sc.Grid.Width, domain.MinGridWidth), max(sc.Grid.Height, domain.MinGridHeight)
	world, err := domain.NewGameWorld(w, h)
	if err != nil {
		return err
	}
	ids, err := sc.Apply(world)
	if err != nil {
		return err
	}

	moving := 0
	for _, id := range ids {
		if world.GetEntity(id).IsMoving() {
			moving++
		}
	}
	fmt.Printf("OK: grid %dx%d, %d props (%d moving)\n", w, h, len(ids), moving)
	return nil
}

func printHelp() {
	fmt.Println(`Scenario Utility - работа с YAML сценариями
Commands:
  gen [seed]             - сгенерировать подземелье и вывести YAML
  surface [seed]         - сгенерировать поверхность и вывести YAML
  check <file.yaml>      - проверить сценарий: разбор и расстановка в пустом мире`)
}

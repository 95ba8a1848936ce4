package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/prefabricator/prefabs"
	"golang.design/x/clipboard"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	dir := flag.String("dir", "", "template directory overriding the embedded templates")
	template := flag.String("template", "", "template to instantiate (default from config)")
	budget := flag.Duration("budget", 0, "build time per frame; 0 builds within one frame")
	watch := flag.Bool("watch", false, "rebuild when templates change under -dir")
	flag.Parse()

	cfg, err := prefabs.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.TemplatesDir = *dir
		case "template":
			cfg.Root = *template
		case "budget":
			cfg.TimePerFrame = *budget
		case "watch":
			cfg.Watch = *watch
		}
	})

	v, err := newViewer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	if err := clipboard.Init(); err != nil {
		log.Printf("prefabview: clipboard unavailable: %v", err)
	} else {
		v.clipboard = true
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("prefabview")

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"lathe/pkg/loader"
	"lathe/pkg/math"
	"lathe/pkg/render"
	"lathe/pkg/renderer"
)

// Game holds the Ebitengine state for the live preview window.
type Game struct {
	MasterImage *image.RGBA
	mu          *sync.Mutex
}

// Update proceeds the game state. Nothing to update here.
func (g *Game) Update() error {
	return nil
}

// Draw copies the current framebuffer to the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.MasterImage != nil {
		screen.WritePixels(g.MasterImage.Pix)
	}
}

// Layout returns the logical screen size; it matches the image dimensions.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 512, 512
}

const sampleScene = `{
  "camera": {
    "eye": {"x": 4, "y": 3, "z": 6},
    "target": {"x": 0, "y": 0, "z": 0},
    "up": {"x": 0, "y": 1, "z": 0},
    "fov": 45,
    "aspect": 1
  },
  "light": {
    "position": {"x": 10, "y": 10, "z": 10},
    "intensity": 1.3
  },
  "shapes": [
    {
      "type": "subdiv",
      "points": [[-1,-1,-1],[1,-1,-1],[1,1,-1],[-1,1,-1],[-1,-1,1],[1,-1,1],[1,1,1],[-1,1,1]],
      "faces": [[0,3,2,1],[4,5,6,7],[0,1,5,4],[3,7,6,2],[0,4,7,3],[1,2,6,5]],
      "tags": [{"name": "crease", "intargs": [2, 6], "floatargs": [10]}],
      "color": {"R": 255, "G": 80, "B": 80, "A": 255}
    },
    {
      "type": "plane",
      "point": {"x": 0, "y": -1.2, "z": 0},
      "normal": {"x": 0, "y": 1, "z": 0},
      "color": {"R": 100, "G": 100, "B": 100, "A": 255}
    }
  ]
}`

func main() {
	scenePath := flag.String("scene", "", "Path to the scene JSON file")
	optionsPath := flag.String("options", "", "Path to a YAML renderer options file")
	fb := flag.Bool("fb", false, "Enable framebuffer preview window")
	out := flag.String("out", "render.png", "Output PNG file")
	flag.Parse()

	if *scenePath == "" {
		fmt.Println("Error: Scene file not provided.")
		fmt.Println("Usage: go run . -scene=<path_to_scene.json>")
		fmt.Println("\nSample Scene JSON:")
		fmt.Println(sampleScene)
		os.Exit(1)
	}

	opts := render.DefaultOptions()
	if *optionsPath != "" {
		var err error
		opts, err = render.LoadOptions(*optionsPath)
		if err != nil {
			log.Fatalf("Error loading options: %v", err)
		}
	}
	ctx := render.NewContext(opts)

	cam, scene, light, atmos, near, far, err := loader.LoadScene(*scenePath, ctx)
	if err != nil {
		log.Fatalf("Error loading scene: %v", err)
	}

	width, height := 512, 512
	rndr := renderer.NewRenderer(cam, scene, *light, width, height, 0.004, near, far, atmos)

	fmt.Println("Rendering...")

	const tileSize = 64
	const overdraw = 1
	numTilesX := width / tileSize
	numTilesY := height / tileSize

	type RenderJob struct {
		RenderBounds renderer.ScreenBounds
		DrawBounds   image.Rectangle
		Seed         uint32
	}

	jobs := make(chan RenderJob, numTilesX*numTilesY)
	var wg sync.WaitGroup

	finalImage := image.NewRGBA(image.Rect(0, 0, width, height))
	var mu sync.Mutex

	saveImage := func() {
		mu.Lock()
		defer mu.Unlock()

		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()

		if err := png.Encode(f, finalImage); err != nil {
			log.Fatalf("Failed to encode PNG: %v", err)
		}
		fmt.Println("Saved to", *out)
	}

	worker := func() {
		for job := range jobs {
			rng := math.NewXorShift32(job.Seed)
			tileImg := rndr.Render(job.RenderBounds, rng)
			mu.Lock()
			draw.Draw(finalImage, job.DrawBounds, tileImg, job.DrawBounds.Min, draw.Src)
			mu.Unlock()
			wg.Done()
		}
	}

	totalTiles := numTilesX * numTilesY
	wg.Add(totalTiles)

	for i := 0; i < runtime.NumCPU(); i++ {
		go worker()
	}

	go func() {
		seed := uint32(1)
		for y := 0; y < height; y += tileSize {
			for x := 0; x < width; x += tileSize {
				jobs <- RenderJob{
					RenderBounds: renderer.ScreenBounds{
						MinX: x - overdraw,
						MinY: y - overdraw,
						MaxX: x + tileSize + overdraw,
						MaxY: y + tileSize + overdraw,
					},
					DrawBounds: image.Rect(x, y, x+tileSize, y+tileSize),
					Seed:       seed,
				}
				seed++
			}
		}
		close(jobs)
	}()

	if *fb {
		go func() {
			wg.Wait()
			fmt.Println("Render complete. Saving auto-snapshot...")
			saveImage()
		}()

		game := &Game{MasterImage: finalImage, mu: &mu}
		ebiten.SetWindowSize(width, height)
		ebiten.SetWindowTitle("Lathe Live Preview")

		if err := ebiten.RunGame(game); err != nil {
			log.Fatalf("Ebitengine error: %v", err)
		}
	} else {
		wg.Wait()
		fmt.Println("Render complete. Saving...")
		saveImage()
	}
}

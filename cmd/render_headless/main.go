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

	"lathe/pkg/loader"
	"lathe/pkg/math"
	"lathe/pkg/render"
	"lathe/pkg/renderer"
)

func main() {
	scenePath := flag.String("scene", "", "Path to the scene JSON file")
	optionsPath := flag.String("options", "", "Path to a YAML renderer options file")
	out := flag.String("out", "render.png", "Output PNG file")
	size := flag.Int("size", 512, "Output image size")
	flag.Parse()

	if *scenePath == "" {
		fmt.Println("Error: Scene file not provided.")
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

	width, height := *size, *size
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

	wg.Add(numTilesX * numTilesY)

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

	wg.Wait()
	fmt.Println("Render complete. Saving...")

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

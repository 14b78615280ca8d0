package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"lathe/pkg/texture"
)

// mktex converts plain rasters (PNG, foreign scanline TIFF) into the
// renderer's tiled multi-directory MIPMAP texture files, and assembles six
// cube faces into a 3x2 environment atlas.
func main() {
	out := flag.String("out", "", "Output texture file")
	filterName := flag.String("filter", "box", "Downsampling filter (box, gaussian, mitchell, triangle, catmull-rom, sinc, disk, bessel)")
	swidth := flag.Float64("swidth", 1, "Filter width in s")
	twidth := flag.Float64("twidth", 1, "Filter width in t")
	tileSize := flag.Int("tilesize", 32, "Tile width and height")
	smode := flag.String("smode", "black", "Wrap mode in s (periodic, clamp, black)")
	tmode := flag.String("tmode", "black", "Wrap mode in t (periodic, clamp, black)")
	envcube := flag.Bool("envcube", false, "Assemble six face images (+x +y +z -x -y -z) into a cube environment map")
	flag.Parse()

	args := flag.Args()
	if *out == "" || len(args) == 0 {
		fmt.Println("Usage: mktex -out=file.tex input.png")
		fmt.Println("       mktex -envcube -out=env.tex px.png py.png pz.png nx.png ny.png nz.png")
		os.Exit(1)
	}

	filter := texture.ParseFilter(*filterName)
	wrap := fmt.Sprintf("%s %s %s %f %f", *smode, *tmode, *filterName, *swidth, *twidth)

	if *envcube {
		if len(args) != 6 {
			log.Fatalf("envcube needs exactly 6 face images, got %d", len(args))
		}
		if err := makeCubeEnv(args, *out, filter, *swidth, *twidth, *tileSize); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println("Wrote", *out)
		return
	}

	opts := texture.WriteOptions{
		TileWidth:  *tileSize,
		TileLength: *tileSize,
		WrapModes:  wrap,
	}
	if err := texture.Convert(args[0], *out, filter, *swidth, *twidth, opts); err != nil {
		log.Fatalf("Error converting %s: %v", args[0], err)
	}
	fmt.Println("Wrote", *out)
}

// makeCubeEnv packs six equally-sized faces into the 3x2 atlas (+x +y +z
// across the top, -x -y -z across the bottom), then mipmaps and writes it.
func makeCubeEnv(faces []string, out string, filter texture.Filter, swidth, twidth float64, tileSize int) error {
	var imgs []*texture.Image
	for _, path := range faces {
		im, err := texture.LoadImage(path)
		if err != nil {
			return err
		}
		imgs = append(imgs, im)
	}
	w, h := imgs[0].Width, imgs[0].Height
	for i, im := range imgs {
		if im.Width != w || im.Height != h {
			return fmt.Errorf("face %s has size %dx%d, want %dx%d",
				faces[i], im.Width, im.Height, w, h)
		}
	}

	atlas := texture.NewImage(3*w, 2*h, imgs[0].Samples)
	for i, im := range imgs {
		ox := (i % 3) * w
		oy := (i / 3) * h
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for s := 0; s < im.Samples; s++ {
					atlas.Set(ox+x, oy+y, s, im.At(x, y, s))
				}
			}
		}
	}

	levels := texture.BuildLevels(atlas, filter, swidth, twidth)
	opts := texture.WriteOptions{
		TileWidth:     tileSize,
		TileLength:    tileSize,
		TextureFormat: "CUBEENVMAP",
		WrapModes:     strings.Join([]string{"clamp clamp", filter.String(), "1.000000 1.000000"}, " "),
	}
	return texture.WriteTexture(out, levels, opts)
}

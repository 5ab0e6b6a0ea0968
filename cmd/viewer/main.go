package main

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/hippodribble/fynewidgets"

	"github.com/branislavhesko/image-viewer/raster"
)

var (
	win      fyne.Window
	stack    *fyne.Container
	infochan chan interface{}

	session = raster.NewSession()
	mode    = raster.ModeNone
	filter  = raster.FilterRGB

	rangeLabel  *widget.Label
	probeLabel  *widget.Label
	currentName string
)

func main() {
	log.Println("Application start")
	win = buildGUI()
	win.Resize(fyne.NewSize(800, 800))
	win.ShowAndRun()
}

func buildGUI() fyne.Window {
	a := app.NewWithID("com.github.branislavhesko.image-viewer")
	w := a.NewWindow("Image Viewer")
	stack = container.NewGridWithColumns(1, widget.NewLabel("Open an image to begin"))

	rangeLabel = widget.NewLabel("")
	probeLabel = widget.NewLabel("")

	modes := widget.NewRadioGroup([]string{"None", "Min-Max", "Log Min-Max", "Standard", "FFT"}, func(sel string) {
		switch sel {
		case "Min-Max":
			mode = raster.ModeMinMax
		case "Log Min-Max":
			mode = raster.ModeLogMinMax
		case "Standard":
			mode = raster.ModeStandard
		case "FFT":
			mode = raster.ModeFFT
		default:
			mode = raster.ModeNone
		}
		refresh()
	})
	modes.Horizontal = true
	modes.SetSelected("None")

	channels := widget.NewSelect([]string{"RGB", "Red", "Green", "Blue"}, func(sel string) {
		switch sel {
		case "Red":
			filter = raster.FilterRed
		case "Green":
			filter = raster.FilterGreen
		case "Blue":
			filter = raster.FilterBlue
		default:
			filter = raster.FilterRGB
		}
		refresh()
	})
	channels.SetSelected("RGB")

	top := container.NewHBox(
		widget.NewButton("Open", openImage),
		widget.NewButton("Histogram", showHistogram),
		modes,
		channels,
		rangeLabel,
		probeLabel,
	)

	infochan = make(chan interface{})
	bottom := fynewidgets.NewStatusProgress(infochan)
	w.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewVScroll(stack)))
	return w
}

func openImage() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		path := rc.URI().Path()
		if err := session.LoadFile(path); err != nil {
			dialog.ShowError(err, win)
			return
		}
		currentName = path
		refresh()
	}, win)
}

func refresh() {
	if !session.Loaded() {
		return
	}
	img, err := session.Render(mode, filter, 1)
	if err != nil {
		log.Println("render failed:", err)
		return
	}

	ww, err := fynewidgets.NewPanZoomCanvasFromImage(img, image.Pt(100, 100), infochan, currentName)
	if err != nil {
		log.Println("cannot make pyramid from image:", err)
		return
	}
	stack.RemoveAll()
	stack.Add(ww)
	stack.Refresh()

	if mn, mx, ok := session.SourceRange(); ok {
		rangeLabel.SetText(fmt.Sprintf("float source  %.4g .. %.4g", mn, mx))
	} else {
		rangeLabel.SetText("")
	}

	w, h := session.Dims()
	if values, exact, err := session.QueryPixel(w/2, h/2); err == nil {
		kind := "display"
		if exact {
			kind = "source"
		}
		probeLabel.SetText(fmt.Sprintf("centre (%s): %.4g", kind, values))
	}

	go func() {
		infochan <- fmt.Sprintf("%s  %s / %s", currentName, mode, filter)
	}()
}

func showHistogram() {
	counts := session.Histogram()
	if counts == nil {
		return
	}
	im := histogramImage(counts, 512, 200)
	w := fyne.CurrentApp().NewWindow("Histogram")
	ci := canvas.NewImageFromImage(im)
	ci.FillMode = canvas.ImageFillContain
	ci.SetMinSize(fyne.NewSize(512, 200))
	w.SetContent(ci)
	w.Show()
}

// draws per-channel bars into a simple additive RGB plot
func histogramImage(counts [][]uint32, w, h int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(im.Pix); i += 4 {
		im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3] = 15, 15, 15, 255
	}

	var maxCount uint32 = 1
	for _, channel := range counts {
		for _, c := range channel {
			if c > maxCount {
				maxCount = c
			}
		}
	}

	for bin := 0; bin < raster.HistogramBins; bin++ {
		x0 := bin * w / raster.HistogramBins
		x1 := (bin + 1) * w / raster.HistogramBins
		for ch := 0; ch < 3; ch++ {
			barTop := h - int(float64(counts[ch][bin])/float64(maxCount)*float64(h))
			for x := x0; x < x1; x++ {
				for y := barTop; y < h; y++ {
					p := im.NRGBAAt(x, y)
					switch ch {
					case 0:
						p.R = 255
					case 1:
						p.G = 255
					case 2:
						p.B = 255
					}
					im.SetNRGBA(x, y, color.NRGBA{p.R, p.G, p.B, 255})
				}
			}
		}
	}
	return im
}

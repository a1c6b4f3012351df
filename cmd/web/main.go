// Web interface for training and visualising a model.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/jmb792/digitlab/nnet"
	"github.com/jmb792/digitlab/web"
)

const (
	scale = 3
	rows  = 8
	cols  = 10
)

func main() {
	log.SetFlags(0)
	addr := flag.String("addr", ":8080", "listen address")
	auth := flag.Bool("auth", false, "require login via pam authentication")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("usage: web [opts] <model>")
		os.Exit(1)
	}
	model := flag.Arg(0)

	net, err := web.NewModel(model)
	nnet.CheckErr(err)

	t, err := web.NewTemplates()
	nnet.CheckErr(err)
	t.AddMenuItem(web.Link{Url: "/train", Name: "train"})
	t.AddMenuItem(web.Link{Url: "/images", Name: "images"})
	t.AddMenuItem(web.Link{Url: "/confusion", Name: "confusion"})
	t.AddMenuItem(web.Link{Url: "/config", Name: "config"})

	trainPage := web.NewTrainPage(t.Clone(), net)
	imagePage := web.NewImagePage(t.Clone(), net, scale, rows, cols)
	confusionPage := web.NewConfusionPage(t.Clone(), net, scale)
	configPage := web.NewConfigPage(t.Clone(), net)

	r := mux.NewRouter()
	r.Handle("/", http.RedirectHandler("/train", http.StatusFound))
	r.PathPrefix("/static/").Handler(http.FileServer(http.Dir(web.AssetDir)))

	r.HandleFunc("/train", trainPage.Base())
	r.HandleFunc("/train/{cmd:(?:stats|start|stop|continue)}", trainPage.Base())
	r.HandleFunc("/stats", trainPage.Stats())
	r.HandleFunc("/ws", trainPage.Websocket())

	r.HandleFunc("/images", imagePage.Home())
	r.HandleFunc("/images/{dset}/", imagePage.Base())
	r.HandleFunc("/images/{dset}/{class:[0-9]+}", imagePage.Base())
	r.HandleFunc("/images/{dset}/opt/{opt}", imagePage.Setopt())
	r.HandleFunc("/img/{dset}/{id:[0-9]+}", imagePage.Image())
	r.HandleFunc("/grid/{dset}.png", imagePage.SampleGrid())

	r.HandleFunc("/confusion", confusionPage.Base())
	r.HandleFunc("/confusion/matrix.png", confusionPage.Matrix())

	r.HandleFunc("/config", configPage.Base())
	r.HandleFunc("/config/save", configPage.Save()).Methods("POST")
	r.HandleFunc("/config/reset", configPage.Reset())

	var handler http.Handler = r
	if *auth {
		handler = web.NewAuthMiddleware().Middleware(r)
	}
	fmt.Println("serving web page at http://localhost" + *addr)
	nnet.CheckErr(http.ListenAndServe(*addr, handler))
}

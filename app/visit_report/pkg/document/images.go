package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

const (
	imagesPerTable = 6
	imageColumns   = 2
	imageMaxWidth  = 250
)

// insertImages lays out the photos of one question as 2 column tables at the
// question's token. Returns the number of photos that could not be loaded.
func (r *Renderer) insertImages(ctx context.Context, root *html.Node, g model.ImageGroup) int {
	log := r.log.WithFields(logrus.Fields{"title": g.Title, "token": g.Token})
	if g.Token == "" {
		log.Warn("photos without a template token, skipped")
		return 0
	}
	nodes := textNodes(root, g.Token)
	if len(nodes) == 0 {
		log.Warn("photo token not found in template")
		return 0
	}

	cells, failed := r.imageCells(ctx, g.FileIDs, log)

	n := nodes[0]
	at := ancestor(n, anchorTags)
	if at == nil {
		at = n
	}
	for start := 0; start < len(cells); start += imagesPerTable {
		end := min(start+imagesPerTable, len(cells))
		at.Parent.InsertBefore(imageTable(cells[start:end]), at)
	}

	for _, tn := range nodes {
		tn.Data = strings.ReplaceAll(tn.Data, g.Token, "")
	}
	if at != n && strings.TrimSpace(textContent(at)) == "" && len(elements(at, isMedia)) == 0 {
		removeNode(at)
	}

	log.Debugf("inserted %d photos", len(cells)-failed)
	return failed
}

func (r *Renderer) imageCells(ctx context.Context, ids []string, log logrus.FieldLogger) ([]*html.Node, int) {
	cells := make([]*html.Node, 0, len(ids))
	failed := 0
	for i, id := range ids {
		cell := element(atom.Td, "style", "width:50%;text-align:center;vertical-align:top;padding:4px")
		src, err := r.dataURI(ctx, id)
		if err != nil {
			log.WithError(err).Warnf("could not load photo %s", id)
			cell.AppendChild(text(fmt.Sprintf("[Error al cargar imagen ID: %s]", id)))
			cells = append(cells, cell)
			failed++
			continue
		}
		caption := fmt.Sprintf("Fotografía %d.", i+1)
		img := element(atom.Img, "src", src, "alt", caption,
			"style", fmt.Sprintf("max-width:%dpx;height:auto", imageMaxWidth))
		appendAll(cell,
			appendAll(element(atom.P, "style", "text-align:center"), img),
			appendAll(element(atom.P, "style", "text-align:center;font-style:italic"), text(caption)),
		)
		cells = append(cells, cell)
	}
	return cells, failed
}

func (r *Renderer) dataURI(ctx context.Context, id string) (string, error) {
	if r.images == nil {
		return "", fmt.Errorf("no image source configured")
	}
	img, err := r.images.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	return img.DataURI(), nil
}

func imageTable(cells []*html.Node) *html.Node {
	table := element(atom.Table, "class", "image-grid", "style", "width:100%;border-collapse:collapse")
	body := element(atom.Tbody)
	table.AppendChild(body)

	rows := (len(cells) + imageColumns - 1) / imageColumns
	for row := 0; row < rows; row++ {
		tr := element(atom.Tr)
		for col := 0; col < imageColumns; col++ {
			if i := row*imageColumns + col; i < len(cells) {
				tr.AppendChild(cells[i])
			} else {
				tr.AppendChild(element(atom.Td))
			}
		}
		body.AppendChild(tr)
	}
	return table
}

func isMedia(n *html.Node) bool {
	return n.DataAtom == atom.Img || n.DataAtom == atom.Table
}

package helpers

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"text/template"

	"bitbucket.org/skilr/backend/models"
	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

type RequestPdf struct {
	bodies []string
}

func (r *RequestPdf) ParseTemplate(templateFileName string, data interface{}) error {
	t, err := template.ParseFiles(templateFileName)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err = t.Execute(buf, data); err != nil {
		return err
	}
	r.bodies = append(r.bodies, buf.String())
	return nil
}

const (
	ConstHTMLNewPage = `
	<div class="new-page"></div>
	`
)

func (r *RequestPdf) GeneratePDF() (*bytes.Buffer, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, errors.Wrap(err, "failed creating pdf generator")
	}

	pdfg.AddPage(wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(strings.Join(r.bodies, ConstHTMLNewPage)))))

	err = pdfg.Create()
	if err != nil {
		return nil, err
	}

	return pdfg.Buffer(), nil
}

// GenerateReceiptPDF renders the receipt attached to the
// payment-success mail. The QR encodes the processor reference so a
// receipt can be matched back to the record.
func GenerateReceiptPDF(account *models.Account, payment *models.Payment, amount string) (*bytes.Buffer, error) {
	r := RequestPdf{}

	img, err := qrcode.New(payment.Reference, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	base64, err := EncodeImage(img.Image(256))
	if err != nil {
		return nil, err
	}

	date := payment.Date
	if payment.Created != nil {
		date = payment.Created.Format("02-01-2006")
	}

	if err := r.ParseTemplate("./templates/pdf/receipt.html", models.PaymentReceiptHTML{
		ID:        payment.ID,
		Firstname: RemoveAccents(account.Firstname),
		Lastname:  account.Lastname,
		Amount:    amount,
		Reference: payment.Reference,
		Date:      date,
		Image:     base64,
	}); err != nil {
		return nil, err
	}

	mem, err := r.GeneratePDF()
	if err != nil {
		return nil, err
	}

	return mem, nil
}

func EncodeImage(m image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

package registry

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

const (
	nsApplicationResponse = "urn:oasis:names:specification:ubl:schema:xsd:ApplicationResponse-2"
	nsCAC                 = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC                 = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// Código de tipo de comprobante del catálogo 01.
func documentTypeCode(t entity.DocumentType) string {
	if t == entity.DocumentBoleta {
		return "03"
	}
	return "01"
}

// CDRFilename nombre de la constancia: R-{RUC}-{TT}-{SERIE}-{NUMERO}.
func CDRFilename(issuerRUC string, inv *entity.Invoice) string {
	return fmt.Sprintf("R-%s-%s-%s-%s", issuerRUC, documentTypeCode(inv.DocumentType), inv.Serie, inv.Numero)
}

// CDRContent datos de la respuesta a incluir en la constancia.
type CDRContent struct {
	IssuerRUC   string
	Ticket      string
	Code        string
	Description string
	At          time.Time
}

// BuildCDRZip arma un ApplicationResponse mínimo y lo empaqueta en un zip con un único XML.
func BuildCDRZip(inv *entity.Invoice, c CDRContent) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("ar:ApplicationResponse")
	root.CreateAttr("xmlns:ar", nsApplicationResponse)
	root.CreateAttr("xmlns:cac", nsCAC)
	root.CreateAttr("xmlns:cbc", nsCBC)

	root.CreateElement("cbc:UBLVersionID").SetText("2.0")
	root.CreateElement("cbc:ID").SetText(c.Ticket)
	root.CreateElement("cbc:IssueDate").SetText(c.At.Format(time.DateOnly))
	root.CreateElement("cbc:IssueTime").SetText(c.At.Format(time.TimeOnly))

	sender := root.CreateElement("cac:SenderParty").CreateElement("cac:PartyIdentification")
	sender.CreateElement("cbc:ID").SetText("20131312955")
	receiver := root.CreateElement("cac:ReceiverParty").CreateElement("cac:PartyIdentification")
	receiver.CreateElement("cbc:ID").SetText(c.IssuerRUC)

	docResp := root.CreateElement("cac:DocumentResponse")
	resp := docResp.CreateElement("cac:Response")
	resp.CreateElement("cbc:ReferenceID").SetText(inv.DocumentLabel())
	resp.CreateElement("cbc:ResponseCode").SetText(c.Code)
	resp.CreateElement("cbc:Description").SetText(c.Description)
	ref := docResp.CreateElement("cac:DocumentReference")
	ref.CreateElement("cbc:ID").SetText(inv.DocumentLabel())
	ref.CreateElement("cbc:DocumentTypeCode").SetText(documentTypeCode(inv.DocumentType))
	recipient := docResp.CreateElement("cac:RecipientParty").CreateElement("cac:PartyIdentification")
	recipient.CreateElement("cbc:ID").SetText(inv.CustomerDocumentNumber)

	doc.Indent(2)
	xmlBytes, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("cdr: serializar XML: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create(CDRFilename(c.IssuerRUC, inv) + ".xml")
	if err != nil {
		return nil, fmt.Errorf("cdr: crear entrada zip: %w", err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("cdr: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cdr: cerrar zip: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCDR lee el código y la descripción de la respuesta dentro del zip de la constancia.
func ParseCDR(zipBytes []byte) (code, description string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", "", fmt.Errorf("cdr: abrir zip: %w", err)
	}
	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", "", fmt.Errorf("cdr: abrir %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, 4<<20))
		rc.Close()
		if err != nil {
			return "", "", fmt.Errorf("cdr: leer %s: %w", f.Name, err)
		}
		return parseCDRXML(data)
	}
	return "", "", fmt.Errorf("cdr: el zip no contiene XML")
}

func parseCDRXML(data []byte) (string, string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", "", fmt.Errorf("cdr: parsear XML: %w", err)
	}
	resp := doc.FindElement("//DocumentResponse/Response")
	if resp == nil {
		return "", "", fmt.Errorf("cdr: no se encontró DocumentResponse/Response")
	}
	var code, desc string
	if el := resp.SelectElement("ResponseCode"); el != nil {
		code = strings.TrimSpace(el.Text())
	}
	if el := resp.SelectElement("Description"); el != nil {
		desc = strings.TrimSpace(el.Text())
	}
	return code, desc, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

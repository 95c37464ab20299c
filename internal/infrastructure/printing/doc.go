// Package printing turns a rendered certificate page into a downloadable PDF.
//
// The pipeline is split into small pieces so each can be swapped or faked:
//   - TemplateEngine wraps substituted certificate markup in the page shell
//   - QRGenerator encodes the verification URL as a PNG data URI
//   - AssetBarrier fetches every image the page references and inlines it
//   - Rasterizer opens a CaptureTarget (headless Chrome via chromedp)
//   - PageComposer embeds the captured bitmap in one letter landscape page
//   - ArchiveStore keeps copies of exported documents on local disk
package printing

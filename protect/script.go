package protect

import (
	"fmt"
	"strconv"
)

// ExpiredMessage is shown by the viewer when an expired document is opened.
const ExpiredMessage = "This document has expired and can no longer be printed."

// libraryName is the key of the document-level script in the /JavaScript name tree.
const libraryName = "labelsheet"

// LibraryScript 返回文档级脚本：按标记切换遮罩，以及到期检查。
func LibraryScript(marker string) string {
	return fmt.Sprintf(`var labelsheetDoc = this;
var labelsheetMarker = %s;

function setProtectorsHidden(hidden) {
  for (var p = 0; p < labelsheetDoc.numPages; p++) {
    var annots = labelsheetDoc.getAnnots({nPage: p});
    if (annots == null) continue;
    for (var i = 0; i < annots.length; i++) {
      if (annots[i].name == labelsheetMarker) annots[i].hidden = hidden;
    }
  }
}

function checkExpiration(y, m, d, h, mi) {
  var expires = Date.UTC(y, m - 1, d, h, mi);
  if (new Date().getTime() >= expires) {
    app.alert(%s);
    labelsheetDoc.closeDoc(true);
    return;
  }
  setProtectorsHidden(true);
  labelsheetDoc.print({bUI: true, bSilent: false, bShrinkToFit: false});
}
`, strconv.Quote(marker), strconv.Quote(ExpiredMessage))
}

// OpenScript 是文档打开动作，参数为 UTC 的年/月/日/时/分。
func OpenScript(st State) string {
	e := st.Expiration.UTC()
	return fmt.Sprintf("checkExpiration(%d, %d, %d, %d, %d);", e.Year(), int(e.Month()), e.Day(), e.Hour(), e.Minute())
}

// AfterPrintScript 绑定到 /AA /DP（打印完成）。
func AfterPrintScript() string {
	return "setProtectorsHidden(false);\ntry { this.closeDoc(true); } catch (e) {}"
}

package interceptor

import "strings"

// 合成替代资源：允许名单内的第三方依赖抓取失败时返回的最小可用实现
// 调用方永远拿到可执行的内容，不会观察到硬失败

// fallbackShellHTML 应用壳彻底丢失时的内联兜底页面
const fallbackShellHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Offline Note Vault</title>
<style>
body{font-family:-apple-system,"Segoe UI",sans-serif;display:flex;align-items:center;justify-content:center;height:100vh;margin:0;background:#f7f7f8;color:#333}
main{text-align:center;max-width:28em;padding:2em}
h1{font-size:1.4em}
</style>
</head>
<body>
<main>
<h1>Offline Note Vault</h1>
<p>The application shell is not cached yet. Reconnect once to finish installation; your saved notes are untouched.</p>
</main>
</body>
</html>
`

// fallbackEditorJS 富文本编辑器的精简替代，仅保留 contenteditable 基本能力
// API 形状与完整版一致（构造、getContents/setContents、text-change 回调）
const fallbackEditorJS = `(function(global){
"use strict";
function Quill(target,opts){
  var el=typeof target==="string"?document.querySelector(target):target;
  el.contentEditable="true";
  el.classList.add("ql-editor-lite");
  this.root=el;
  this._handlers={};
  var self=this;
  el.addEventListener("input",function(){self._emit("text-change");});
}
Quill.prototype.on=function(name,fn){(this._handlers[name]=this._handlers[name]||[]).push(fn);return this;};
Quill.prototype._emit=function(name){(this._handlers[name]||[]).forEach(function(fn){fn();});};
Quill.prototype.getText=function(){return this.root.innerText;};
Quill.prototype.getContents=function(){return {html:this.root.innerHTML};};
Quill.prototype.setContents=function(delta){this.root.innerHTML=(delta&&delta.html)||"";};
Quill.prototype.enable=function(on){this.root.contentEditable=on===false?"false":"true";};
global.Quill=Quill;
})(window);
`

// fallbackEditorCSS 编辑器替代样式
const fallbackEditorCSS = `.ql-editor-lite{min-height:12em;padding:.75em;border:1px solid #ccc;border-radius:4px;outline:none;line-height:1.5}
.ql-editor-lite:focus{border-color:#888}
.ql-toolbar{display:none}
`

// fallbackIconJS 图标库的替代实现：replace() 把占位元素换成同尺寸的占位 SVG
const fallbackIconJS = `(function(global){
"use strict";
var svg='<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><circle cx="12" cy="12" r="9"></circle></svg>';
global.feather={
  replace:function(){
    document.querySelectorAll("[data-feather]").forEach(function(el){
      var span=document.createElement("span");
      span.innerHTML=svg;
      span.className="feather feather-"+el.getAttribute("data-feather");
      el.parentNode.replaceChild(span,el);
    });
  },
  icons:{}
};
})(window);
`

// fallbackSVG 单个图标资源的占位
const fallbackSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2"><circle cx="12" cy="12" r="9"/></svg>`

// SynthesizeFallback 按目标地址给出合成替代内容与 Content-Type
// 返回内容保证非空
func SynthesizeFallback(target string) ([]byte, string) {
	lower := strings.ToLower(target)
	switch {
	case strings.HasSuffix(lower, ".css") || strings.Contains(lower, ".css?"):
		return []byte(fallbackEditorCSS), "text/css; charset=utf-8"
	case strings.HasSuffix(lower, ".svg") || strings.Contains(lower, ".svg?"):
		return []byte(fallbackSVG), "image/svg+xml"
	case strings.Contains(lower, "feather") || strings.Contains(lower, "icon"):
		return []byte(fallbackIconJS), "application/javascript; charset=utf-8"
	default:
		return []byte(fallbackEditorJS), "application/javascript; charset=utf-8"
	}
}
